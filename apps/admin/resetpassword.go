package main

import (
	"context"

	"github.com/tolgakaban/lgstakip/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	cred, err := cli.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := cred.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.creds.UpdateCredential(ctx, cred); err != nil {
		return err
	}
	return nil
}
