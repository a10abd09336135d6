// Package notify delivers user-facing notifications. Delivery is always
// best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Sender delivers the notifications the services emit.
type Sender interface {
	SendWelcome(ctx context.Context, email, username string) error
	SendPasswordReset(ctx context.Context, email, username, token string) error
	SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error
	SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error
}

// LogSender writes notifications to the process log in place of email.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) SendWelcome(ctx context.Context, email, username string) error {
	log.Printf("[notify] welcome email to %s: %s", email, WelcomeText(username))
	return nil
}

func (LogSender) SendPasswordReset(ctx context.Context, email, username, token string) error {
	log.Printf("[notify] password reset email to %s for %s", email, username)
	return nil
}

func (LogSender) SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error {
	log.Printf("[notify] task assignment email to %s: %s", email, TaskAssignedText(username, taskTitle, groupName))
	return nil
}

func (LogSender) SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error {
	log.Printf("[notify] invitation email to %s: %s", email, GroupInvitationText(groupName, joinCode, inviterName))
	return nil
}

// Multi fans a notification out to every sender and joins their errors.
type Multi []Sender

func (m Multi) SendWelcome(ctx context.Context, email, username string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SendWelcome(ctx, email, username))
	}
	return errors.Join(errs...)
}

func (m Multi) SendPasswordReset(ctx context.Context, email, username, token string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SendPasswordReset(ctx, email, username, token))
	}
	return errors.Join(errs...)
}

func (m Multi) SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SendTaskAssigned(ctx, email, username, taskTitle, groupName))
	}
	return errors.Join(errs...)
}

func (m Multi) SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SendGroupInvitation(ctx, email, groupName, joinCode, inviterName))
	}
	return errors.Join(errs...)
}

func WelcomeText(username string) string {
	return fmt.Sprintf("Welcome, %s! Create a group or join one with a code to get started.", username)
}

func TaskAssignedText(username, taskTitle, groupName string) string {
	return fmt.Sprintf("%s, you were assigned %q in %s.", username, taskTitle, groupName)
}

func GroupInvitationText(groupName, joinCode, inviterName string) string {
	return fmt.Sprintf("%s invited you to join %s. Use join code %s.", inviterName, groupName, joinCode)
}
