// Command reminder-scan nudges reviewers whose reviews are coming due,
// corresponding authors with pending proceedings invitations, and retries
// notification emails whose first delivery attempt failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"conference-management-api/config"
	"conference-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	var (
		trigger   string
		lockName  string
		recordRun bool
	)

	flag.StringVar(&trigger, "trigger", "cli", "trigger source label stored in reminder_scan_runs")
	flag.StringVar(&lockName, "lock-name", "reminder_scan", "MySQL advisory lock name (empty to disable)")
	flag.BoolVar(&recordRun, "record-run", true, "record this run in reminder_scan_runs")
	flag.Parse()

	svc := services.NewReminderService(nil)
	summary, err := svc.Run(context.Background(), &services.ReminderScanInput{
		TriggerSource: trigger,
		LockName:      lockName,
		RecordRun:     recordRun,
	})
	if err != nil {
		if errors.Is(err, services.ErrReminderScanAlreadyRunning) {
			log.Fatal("reminder scan already running (advisory lock held)")
		}
		log.Fatalf("reminder scan failed: %v", err)
	}

	fmt.Printf("Review reminders sent: %d\n", summary.ReviewReminders)
	fmt.Printf("Invitation reminders sent: %d\n", summary.InvitationReminders)
	fmt.Printf("Emails retried: %d, recovered: %d\n", summary.EmailsRetried, summary.EmailsRecovered)
}
