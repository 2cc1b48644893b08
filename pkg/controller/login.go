package controller

import (
	"context"
	"errors"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

func (c *Controller) getLoginGrid() *tview.Grid {
	emailMax := 60
	passwordMax := 60

	c.loginForm = tview.NewForm().
		AddInputField("Email", "", emailMax, nil, nil).
		AddPasswordField("Password", "", passwordMax, '*', nil)

	email, _ := c.loginForm.GetFormItemByLabel("Email").(*tview.InputField)
	password, _ := c.loginForm.GetFormItemByLabel("Password").(*tview.InputField)

	c.loginForm.AddButton("Login", func() {
		address := email.GetText()

		c.run(func(ctx context.Context) error {
			return c.app.Login(ctx, address, password.GetText())
		}, func(err error) {
			if err != nil {
				// failures from the server were already alerted by the app
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					c.showAlert("Login Failed", verr.Message)
				}

				return
			}

			password.SetText("")
			c.showRoster()
			c.showAlert("Welcome", "Logged in with "+address)
		})
	})

	c.loginForm.AddButton("Sign Up", func() {
		address := email.GetText()

		c.run(func(ctx context.Context) error {
			return c.app.SignUp(ctx, address, password.GetText())
		}, func(err error) {
			if err != nil {
				log.Debug().Err(err).Msg("sign up failed")

				return
			}

			c.showAlert("Account Created", "You can now log in as "+address)
		})
	})

	c.loginForm.AddButton("Quit", c.quit)

	c.loginForm.SetBorder(true).SetTitle(" Care Tracker ")

	grid := tview.NewGrid().
		SetRows(0, 11, 0).
		SetColumns(0, 70, 0).
		AddItem(c.loginForm, 1, 1, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) showLogin() {
	c.client = nil
	c.selectedTask = nil

	c.tui.SetInputCapture(nil)
	c.show(pageLogin, c.loginForm)
}
