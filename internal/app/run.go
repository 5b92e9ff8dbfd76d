package app

import (
	"flag"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/namematch/internal/config"
	"yashubustudio/namematch/internal/logging"
	"yashubustudio/namematch/matcher"
)

const fyneAppID = "yashubustudio.namematch"

// Run initializes required resources and starts the desktop UI.
func Run() error {
	env := config.AddEnvFlag(flag.CommandLine, ".env")
	flag.Parse()
	if _, err := env.Load(); err != nil {
		return err
	}
	settings, err := config.Load()
	if err != nil {
		return err
	}

	sink := &lineSink{}
	logger, err := logging.NewWithWriter(os.Stdout, settings.Environment, settings.LogLevel, sink)
	if err != nil {
		return err
	}
	cfg, err := matcher.LoadConfig(settings.ConfigPath)
	if err != nil {
		return err
	}

	svc := NewService(cfg, settings.ConfigPath, logger)
	defer svc.Close()

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc)
	sink.setFunc(u.appendLog)
	u.w.ShowAndRun()
	return nil
}
