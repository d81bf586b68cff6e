package main

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/calendar"
	"github.com/sacelhq/sacel/core/user"
	emailsvc "github.com/sacelhq/sacel/services/email"
	logsvc "github.com/sacelhq/sacel/services/logger"
	"github.com/sacelhq/sacel/storage/database"
	sqlxrepos "github.com/sacelhq/sacel/storage/database/sqlx"
)

// reminderd sweeps for due event reminders once a minute and delivers them.
// Email reminders go out through the configured email service; other types
// are logged for downstream notification workers to pick up.
func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "REMINDERD : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("Failed to close", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	calSvc := calendar.NewService(
		sqlxrepos.NewCalendarRepository(db, logger),
		usrRepo,
		sqlxrepos.NewAssignmentRepository(db),
		mailSvc,
		logger,
		conf,
	)

	sweeper := reminderSweeper{
		svc:    calSvc,
		users:  usrRepo,
		mail:   mailSvc,
		logger: logger,
		conf:   conf,
	}

	c := cron.New()
	if _, err = c.AddFunc("* * * * *", sweeper.sweep); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling sweep: %v", err), err)
	}
	c.Start()
	logger.Info("reminderd started")
	defer logger.Info("reminderd stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// let an in-flight sweep finish
	<-c.Stop().Done()
}

type reminderSweeper struct {
	svc    calendar.ServiceInterface
	users  user.Repository
	mail   core.EmailService
	logger core.Logger
	conf   *core.Config
}

func (s *reminderSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	now := time.Now().UTC()
	due, err := s.svc.DueReminders(ctx, now)
	if err != nil {
		s.logger.Error(fmt.Sprintf("querying due reminders: %v", err), err)
		return
	}

	for _, rem := range due {
		if err = s.deliver(ctx, rem); err != nil {
			s.logger.Error(fmt.Sprintf("delivering reminder %s: %v", rem.ReminderID, err), err)
			continue
		}
		if err = s.svc.MarkReminderSent(ctx, rem.ReminderID); err != nil {
			s.logger.Error(fmt.Sprintf("marking reminder %s sent: %v", rem.ReminderID, err), err)
		}
	}
}

func (s *reminderSweeper) deliver(ctx context.Context, rem calendar.DueReminder) error {
	switch rem.Type {
	case calendar.ReminderEmail:
		usr, err := s.users.GetUser(ctx, user.GetFilter{ID: rem.UserID})
		if err != nil {
			return err
		}
		s.mail.SendMessages(
			&core.EmailMessage{
				To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
				Subject: fmt.Sprintf("Reminder: %s", rem.EventTitle),
				Body: fmt.Sprintf(
					"Hi %s,\n\nYour event %q starts at %s.\n",
					usr.Name, rem.EventTitle, rem.EventStart.Format("Mon, 02 Jan 2006 15:04 MST"),
				),
			},
		)
	default:
		// notification and SMS delivery ride on external workers; surface them in the log
		s.logger.Info(fmt.Sprintf(
			"reminder %s (%s) due for user %s: event %q starts at %s",
			rem.ReminderID, rem.Type, rem.UserID, rem.EventTitle, rem.EventStart.Format(time.RFC3339),
		))
	}
	return nil
}
