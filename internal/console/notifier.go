package console

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/launcher-auth/accounts"
	"github.com/jrsteele09/launcher-auth/auth"
	"github.com/pterm/pterm"
)

// Notifier prints login events to a terminal.
type Notifier struct {
	out     io.Writer
	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
}

var _ auth.Notifier = (*Notifier)(nil)

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{
		out:     out,
		info:    pterm.Info.WithWriter(out),
		success: pterm.Success.WithWriter(out),
	}
}

func (n *Notifier) Emit(_ context.Context, event auth.Event) error {
	switch event.Name {
	case auth.EventLoginProgress:
		n.info.Println(event.Payload)
	case auth.EventAccountAdded:
		account, ok := event.Payload.(*accounts.Account)
		if !ok {
			return fmt.Errorf("[console Emit] %s payload is %T", event.Name, event.Payload)
		}
		return n.printAccount(account)
	case auth.EventLoginComplete:
		n.success.Println("Login complete")
	}
	return nil
}

func (n *Notifier) printAccount(account *accounts.Account) error {
	n.success.Printfln("Logged in as %s", pterm.Bold.Sprint(account.AccountName))
	if len(account.Characters) == 0 {
		n.info.Println("No characters on this account")
		return nil
	}

	rows := pterm.TableData{{"Account ID", "Display name", "Members"}}
	for _, c := range account.Characters {
		rows = append(rows, []string{c.AccountID, c.DisplayName, fmt.Sprint(c.IsMembers)})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(n.out).WithData(rows).Render()
}
