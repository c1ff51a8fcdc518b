// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"lethe/internal/security"

	"github.com/allisson/go-env"
	"golang.org/x/term"
)

const passwordEnv = "LETHE_PASSWORD"

var errNoPassword = errors.New("a password is required: use -p, set " + passwordEnv + " or run from a terminal")

// resolvePassword takes the password from the flag, then the environment,
// then an interactive prompt. confirm asks for the password twice.
func (a *app) resolvePassword(flagValue string, confirm bool) (*security.SecureBytes, error) {
	if flagValue != "" {
		return security.NewSecureString(flagValue), nil
	}
	if v := env.GetString(passwordEnv, ""); v != "" {
		return security.NewSecureString(v), nil
	}

	if a.stdin == nil || !term.IsTerminal(int(a.stdin.Fd())) {
		return nil, errNoPassword
	}

	first, err := a.readPassword("Password: ")
	if err != nil {
		return nil, err
	}
	if first.Len() == 0 {
		first.Clear()
		return nil, errors.New("password cannot be empty")
	}
	if !confirm {
		return first, nil
	}

	second, err := a.readPassword("Confirm password: ")
	if err != nil {
		first.Clear()
		return nil, err
	}
	defer second.Clear()
	if !first.Equal(second) {
		first.Clear()
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}

func (a *app) readPassword(prompt string) (*security.SecureBytes, error) {
	fmt.Fprint(a.stderr, prompt)
	data, err := term.ReadPassword(int(a.stdin.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return security.NewSecureBytes(data), nil
}
