package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingSender struct {
	calls int
	err   error
}

func (c *countingSender) SendWelcome(ctx context.Context, email, username string) error {
	c.calls++
	return c.err
}

func (c *countingSender) SendPasswordReset(ctx context.Context, email, username, token string) error {
	c.calls++
	return c.err
}

func (c *countingSender) SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error {
	c.calls++
	return c.err
}

func (c *countingSender) SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error {
	c.calls++
	return c.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("smtp down")
	ok := &countingSender{}
	broken := &countingSender{err: failure}
	m := Multi{ok, broken, LogSender{}}

	err := m.SendTaskAssigned(ctx, "a@example.com", "alice", "Fix bug", "Platform")
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, broken.calls, "a failing sender does not stop the others")

	assert.NoError(t, Multi{ok, LogSender{}}.SendWelcome(ctx, "a@example.com", "alice"))
	assert.Equal(t, 2, ok.calls)
}

func TestNotificationTexts(t *testing.T) {
	assert.Contains(t, WelcomeText("alice"), "alice")
	assert.Equal(t, `alice, you were assigned "Fix bug" in Platform.`, TaskAssignedText("alice", "Fix bug", "Platform"))
	assert.Contains(t, GroupInvitationText("Platform", "ABCD2345", "bob"), "ABCD2345")
}
