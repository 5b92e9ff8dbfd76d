package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/namematch/matcher"
)

const logDebounceInterval = 150 * time.Millisecond

var tableFileFilter = []string{".csv", ".tsv", ".txt", ".xlsx"}

type tableColumn struct {
	Title string
	Width float32
}

type uiState struct {
	service *Service

	w             fyne.Window
	input         *widget.Entry
	log           *widget.Entry
	status        *widget.Label
	progress      *widget.ProgressBar
	configSummary *widget.Label
	resTbl        *widget.Table
	columns       []tableColumn
	rows          []matcher.ReportRow
	statusBind    binding.String
	logBind       binding.String
	progressBind  binding.Float
	logLines      []string
	logMu         sync.Mutex
	logUpdateCh   chan struct{}

	matchBtn    *widget.Button
	exportBtn   *widget.Button
	catalogBtn  *widget.Button
	usernameBtn *widget.Button
}

func buildUI(a fyne.App, svc *Service) *uiState {
	u := &uiState{service: svc}
	u.w = a.NewWindow("Username Matcher - 社員照合")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("準備完了")
	u.progressBind = binding.NewFloat()
	u.logBind = binding.NewString()
	u.startLogUpdater()

	u.input = widget.NewMultiLineEntry()
	u.input.SetPlaceHolder("ここにユーザー名を入力（1行=1件）")

	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("処理ログ")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()
	u.configSummary = widget.NewLabel("")

	u.matchBtn = widget.NewButtonWithIcon("照合実行", theme.ConfirmIcon(), func() { u.onMatch() })
	u.exportBtn = widget.NewButtonWithIcon("結果エクスポート", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.catalogBtn = widget.NewButtonWithIcon("社員データ読込", theme.FolderOpenIcon(), func() { u.onLoadCatalog() })
	u.usernameBtn = widget.NewButtonWithIcon("ユーザー名読込", theme.ContentAddIcon(), func() { u.onLoadUsernames() })
	settingsBtn := widget.NewButtonWithIcon("設定", theme.SettingsIcon(), func() { u.openSettings() })

	u.columns = []tableColumn{
		{Title: "ユーザー名", Width: 200},
		{Title: "社員ID", Width: 110},
		{Title: "氏名", Width: 220},
		{Title: "信頼度", Width: 100},
		{Title: "判定", Width: 220},
	}
	u.resTbl = widget.NewTable(
		func() (int, int) { return len(u.rows) + 1, len(u.columns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row == 0 {
				lbl.SetText(u.columns[id.Col].Title)
				lbl.Alignment = fyne.TextAlignCenter
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			lbl.Alignment = fyne.TextAlignLeading
			lbl.TextStyle = fyne.TextStyle{}
			rowIdx := id.Row - 1
			if rowIdx >= len(u.rows) {
				lbl.SetText("")
				return
			}
			lbl.SetText(cellText(u.rows[rowIdx], id.Col))
		},
	)
	for i, col := range u.columns {
		u.resTbl.SetColumnWidth(i, col.Width)
	}

	controlRow1 := container.NewGridWithColumns(3, u.matchBtn, u.exportBtn, settingsBtn)
	controlRow2 := container.NewGridWithColumns(2, u.catalogBtn, u.usernameBtn)
	left := container.NewVBox(
		widget.NewLabelWithStyle("ユーザー名", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewMax(u.input),
		controlRow1,
		controlRow2,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("進捗", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.progress,
		u.status,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("設定サマリ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.configSummary,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("ログ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewMax(u.log),
	)

	split := container.NewHSplit(left, container.NewBorder(nil, nil, nil, nil, u.resTbl))
	split.Offset = 0.35

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1180, 760))
	u.updateConfigSummary()
	return u
}

func cellText(r matcher.ReportRow, col int) string {
	switch col {
	case 0:
		return r.Username
	case 1:
		return r.EmpID
	case 2:
		return r.EmpName
	case 3:
		return r.Score
	case 4:
		return r.MatchType
	}
	return ""
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.matchBtn, u.exportBtn, u.catalogBtn, u.usernameBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
	})
}

func (u *uiState) appendLog(msg string) {
	now := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", now, msg)

	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > 200 {
		u.logLines = u.logLines[len(u.logLines)-200:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

// logUpdateLoop coalesces bursts of log lines into one binding update.
func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) updateConfigSummary() {
	cfg := u.service.Config()
	name, count := u.service.CatalogStats()
	if name == "" {
		name = "未読込"
	}
	refiner := "OFF"
	if cfg.Refiner.Enabled {
		refiner = "読込失敗"
		if u.service.RefinerAvailable() {
			refiner = "ON"
		}
	}
	summary := fmt.Sprintf("社員データ:%s (%d件) / 表示:上位%d+%d / 閾値:%.0f / 僅差幅:%.1f / 再順位モデル:%s",
		name, count, cfg.Ranking.TopGroup, cfg.Ranking.Additional, cfg.Ranking.Threshold, cfg.Ranking.AmbiguityBand, refiner)
	u.configSummary.SetText(summary)
}

func (u *uiState) onMatch() {
	if lines := splitNonEmptyLines(u.input.Text); len(lines) > 0 {
		u.service.SetUsernames(lines)
	}
	usernames := u.service.Usernames()
	if len(usernames) == 0 {
		dialog.ShowInformation("情報", "ユーザー名が空です", u.w)
		return
	}
	total := len(usernames)
	fyne.Do(func() {
		u.progress.Min = 0
		u.progress.Max = float64(total)
		u.progress.Show()
	})
	_ = u.progressBind.Set(0)
	u.setStatus("処理中...")
	u.setBusy(true)
	u.appendLog(fmt.Sprintf("照合開始 (%d件)", total))
	start := time.Now()

	go func() {
		results, err := u.service.MatchAll(context.Background(), func(done, total int) {
			_ = u.progressBind.Set(float64(done))
			u.setStatus(fmt.Sprintf("処理中 %d/%d", done, total))
		})
		u.setBusy(false)
		fyne.Do(func() { u.progress.Hide() })
		if err != nil {
			fyne.Do(func() { dialog.ShowError(err, u.w) })
			u.setStatus("エラー")
			u.appendLog(fmt.Sprintf("エラー: %v", err))
			return
		}
		rows := matcher.BuildReport(results)
		fyne.Do(func() {
			u.rows = rows
			u.resTbl.Refresh()
		})
		elapsed := time.Since(start).Seconds()
		u.setStatus(fmt.Sprintf("完了 %d件 (%.1fs)", len(results), elapsed))
		u.appendLog(fmt.Sprintf("照合完了 %d件 (%.1fs)", len(results), elapsed))
	}()
}

func (u *uiState) onExport() {
	if len(u.service.Results()) == 0 {
		dialog.ShowInformation("情報", "出力データがありません", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		format := "csv"
		if strings.EqualFold(filepath.Ext(uc.URI().Path()), ".xlsx") {
			format = "xlsx"
		}
		if err := u.service.Export(uc, format); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.appendLog(fmt.Sprintf("エクスポート完了: %s", filepath.Base(uc.URI().Path())))
	}, u.w)
	fd.SetFileName("username_matches.csv")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".xlsx"}))
	fd.Show()
}

func (u *uiState) onLoadCatalog() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		if _, err := u.service.LoadCatalog(rc, rc.URI().Path()); err != nil {
			dialog.ShowError(err, u.w)
			u.appendLog(fmt.Sprintf("社員データ読込エラー: %v", err))
			return
		}
		u.updateConfigSummary()
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(tableFileFilter))
	fd.Show()
}

func (u *uiState) onLoadUsernames() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		if _, err := u.service.LoadUsernames(rc, rc.URI().Path()); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.input.SetText(strings.Join(u.service.Usernames(), "\n"))
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(tableFileFilter))
	fd.Show()
}

func (u *uiState) openSettings() {
	cfg := u.service.Config()
	topSel := widget.NewSelect([]string{"1", "2", "3", "4", "5"}, nil)
	topSel.SetSelected(strconv.Itoa(cfg.Ranking.TopGroup))
	addSel := widget.NewSelect([]string{"0", "1", "2", "3", "4", "5"}, nil)
	addSel.SetSelected(strconv.Itoa(cfg.Ranking.Additional))

	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(fmt.Sprintf("%.1f", cfg.Ranking.Threshold))
	bandEntry := widget.NewEntry()
	bandEntry.SetText(fmt.Sprintf("%.2f", cfg.Ranking.AmbiguityBand))
	idBonusEntry := widget.NewEntry()
	idBonusEntry.SetText(fmt.Sprintf("%.1f", cfg.Bonus.IDSubstring))

	refinerCheck := widget.NewCheck("僅差の候補をモデルで再順位付け", nil)
	refinerCheck.SetChecked(cfg.Refiner.Enabled)
	modelEntry := widget.NewEntry()
	modelEntry.SetText(cfg.Refiner.ModelPath)
	featuresEntry := widget.NewEntry()
	featuresEntry.SetText(cfg.Refiner.FeatureColumnsPath)
	ortEntry := widget.NewEntry()
	ortEntry.SetText(cfg.Refiner.OrtDLL)

	aliasEntries := []struct {
		label  string
		target *[]string
		entry  *widget.Entry
	}{
		{label: "社員ID列名", target: &cfg.Columns.EmpID},
		{label: "名列名", target: &cfg.Columns.FirstName},
		{label: "姓列名", target: &cfg.Columns.LastName},
		{label: "氏名列名", target: &cfg.Columns.EmployeeName},
		{label: "ユーザー名列名", target: &cfg.Columns.Username},
	}
	for i := range aliasEntries {
		e := widget.NewEntry()
		e.SetPlaceHolder("カンマ区切り")
		e.SetText(strings.Join(*aliasEntries[i].target, ", "))
		aliasEntries[i].entry = e
	}

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "上位グループ", Widget: topSel},
		{Text: "追加候補数", Widget: addSel},
		{Text: "閾値", Widget: thresholdEntry},
		{Text: "僅差幅", Widget: bandEntry},
		{Text: "IDボーナス", Widget: idBonusEntry},
		{Text: "再順位モデル", Widget: refinerCheck},
		{Text: "モデル (.onnx)", Widget: modelEntry},
		{Text: "特徴量リスト", Widget: featuresEntry},
		{Text: "ONNX Runtime", Widget: ortEntry},
	}}
	for _, a := range aliasEntries {
		form.Items = append(form.Items, &widget.FormItem{Text: a.label, Widget: a.entry})
	}

	dialog.NewCustomConfirm("設定", "OK", "キャンセル", form, func(ok bool) {
		if !ok {
			return
		}
		newCfg := cfg
		if v, err := strconv.Atoi(topSel.Selected); err == nil {
			newCfg.Ranking.TopGroup = v
		}
		if v, err := strconv.Atoi(addSel.Selected); err == nil {
			newCfg.Ranking.Additional = v
		}
		if v, err := strconv.ParseFloat(thresholdEntry.Text, 64); err == nil {
			newCfg.Ranking.Threshold = v
		}
		if v, err := strconv.ParseFloat(bandEntry.Text, 64); err == nil {
			newCfg.Ranking.AmbiguityBand = v
		}
		if v, err := strconv.ParseFloat(idBonusEntry.Text, 64); err == nil {
			newCfg.Bonus.IDSubstring = v
		}
		newCfg.Refiner.Enabled = refinerCheck.Checked
		newCfg.Refiner.ModelPath = strings.TrimSpace(modelEntry.Text)
		newCfg.Refiner.FeatureColumnsPath = strings.TrimSpace(featuresEntry.Text)
		newCfg.Refiner.OrtDLL = strings.TrimSpace(ortEntry.Text)
		for _, a := range aliasEntries {
			if aliases := splitAliases(a.entry.Text); len(aliases) > 0 {
				*a.target = aliases
			}
		}
		newCfg.Columns = cfg.Columns

		if _, err := u.service.UpdateConfig(newCfg); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.updateConfigSummary()
		u.appendLog("設定を更新しました")
	}, u.w).Show()
}

// splitAliases parses a comma separated list of header names.
func splitAliases(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitNonEmptyLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
