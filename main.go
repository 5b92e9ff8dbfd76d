package main

import (
	"log"

	"yashubustudio/namematch/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("namematch: %v", err)
	}
}
