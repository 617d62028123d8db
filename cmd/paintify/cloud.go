/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"paintify/internal/cloud"
	"paintify/internal/config"
)

var errNoToken = errors.New("no cloud token stored; run: paintify login <user-id> <email>")

func cmdServe(e *env, args []string) error {
	if err := need(args, 0, 0, "no arguments"); err != nil {
		return err
	}
	if e.cfg.Cloud.DSN == "" {
		return fmt.Errorf("cloud DSN not configured; set %s", config.EnvCloudDSN)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := cloud.Open(openCtx, e.cfg.Cloud.DSN, e.cfg.Cloud.PublicBaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer store.Close()

	e.lg.Info("cloud api starting", slog.String("addr", e.cfg.Cloud.Addr))
	return cloud.NewServer(store, config.ServerSecret()).ListenAndServe(ctx, e.cfg.Cloud.Addr)
}

func (e *env) client() (*cloud.Client, error) {
	if e.token == "" {
		return nil, errNoToken
	}
	return cloud.NewClient(e.cfg.Cloud.BaseURL, e.token, e.cfg.Cloud.Timeout()), nil
}

func cmdLogin(e *env, args []string) error {
	if err := need(args, 2, 2, "<user-id> <email>"); err != nil {
		return err
	}
	c := cloud.NewClient(e.cfg.Cloud.BaseURL, "", e.cfg.Cloud.Timeout())
	tok, err := c.RequestToken(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	if err := config.SetToken(tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	e.token = tok
	_, _ = fmt.Fprintf(e.out, "Signed in as %s <%s>\n", args[0], args[1])
	return nil
}

func cmdCloudList(e *env, args []string) error {
	if err := need(args, 0, 0, "no arguments"); err != nil {
		return err
	}
	c, err := e.client()
	if err != nil {
		return err
	}
	list, err := c.ListDrawings(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tURL")
	for _, d := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.CreatedAt.Local().Format(time.DateTime), d.ImageURL)
	}
	return tw.Flush()
}

func cmdShare(e *env, args []string) error {
	if err := need(args, 2, 3, "<image-url> <email> [title]"); err != nil {
		return err
	}
	c, err := e.client()
	if err != nil {
		return err
	}
	sh, err := c.Share(context.Background(), args[1], args[0], optArg(args, 2))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Shared %s with %s\n", sh.ImageURL, sh.ReceiverEmail)
	return nil
}

func cmdShared(e *env, args []string) error {
	if err := need(args, 0, 1, "[email]"); err != nil {
		return err
	}
	c, err := e.client()
	if err != nil {
		return err
	}
	list, err := c.SharedWith(context.Background(), optArg(args, 0))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FROM\tTITLE\tSHARED\tURL")
	for _, s := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.SenderID, s.Title, s.CreatedAt.Local().Format(time.DateTime), s.ImageURL)
	}
	return tw.Flush()
}

func cmdUnshare(e *env, args []string) error {
	if err := need(args, 1, 1, "<image-url>"); err != nil {
		return err
	}
	c, err := e.client()
	if err != nil {
		return err
	}
	n, err := c.Unshare(context.Background(), args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Removed %d share(s)\n", n)
	return nil
}
