package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nowplaying/internal/models"
)

var _ list.Item = userItem{}

// userItem wraps [models.Credential] to implement [list.Item].
type userItem struct {
	cred *models.Credential
	now  time.Time
}

func (i userItem) FilterValue() string { return i.cred.UserID }
func (i userItem) Title() string       { return i.cred.UserID }
func (i userItem) Description() string {
	desc := fmt.Sprintf("token expires %s", i.cred.ExpiresAt.Local().Format(time.DateTime))
	if i.cred.Expired(i.now) {
		desc = fmt.Sprintf("%s • refresh due", desc)
	}
	return desc
}
