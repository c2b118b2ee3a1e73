package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"
)

var errLoginRequired = errors.New("not logged in; run `pautas login --user <code> --password <password>`")

type forbiddenError struct {
	role  string
	route string
}

func (e forbiddenError) Error() string {
	return fmt.Sprintf("permission denied: %s cannot open %s", e.role, e.route)
}

type notFoundError struct {
	kind string
	id   int
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.kind, e.id)
}

func errNotFound(kind string, id int) error {
	return notFoundError{kind: kind, id: id}
}

// now is the clock used for token expiry and checklist dates.
var now = time.Now

// surfaced prefixes err with the warning or error the workflow showed the
// operator, so CLI users see the same text as TUI users.
func surfaced(ctx context.Context, svc *workflow.Services, err error) error {
	n, ok := svc.Session.ActiveNotification(ctx)
	if !ok || strings.TrimSpace(n.Message) == "" {
		return err
	}
	if n.Kind != model.NotifyError && n.Kind != model.NotifyWarning {
		return err
	}
	return fmt.Errorf("%s (%w)", n.Message, err)
}
