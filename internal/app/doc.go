// Package app is the composition root of the padb console.
//
// Run loads the configuration, points zerolog at the log file, optionally
// starts the Prometheus listener, wires the API client to the session gate
// and hands both to the terminal UI. It blocks until the UI exits.
//
// Connect is the same wiring without the UI; the one-shot CLI commands use
// it to log in, check the stored session and list data.
//
//	env, err := app.Connect(cfg)
//	if err != nil {
//		return err
//	}
//	snap := env.Gate.Start(ctx)
//	if snap.Status != session.Authenticated {
//		return errors.New("not signed in")
//	}
//	contacts, err := env.Client.Contacts.List(ctx, aidb.ContactFilter{Limit: 20})
package app
