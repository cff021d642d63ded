// Package vaultkv reads secrets from a KV version 2 engine of an OpenBao or
// HashiCorp Vault server, and watches them for new versions.
//
// Client wraps the official Vault API client:
//
//	client, err := vaultkv.New(ctx, vaultkv.Config{}, log.GlobalWrapper())
//	if err != nil {
//		// ErrConfiguration or ErrAuthentication.
//	}
//	data, err := client.ReadSecret(ctx, "myapp/database", vaultkv.DefaultMount)
//
// Watch polls the version metadata of a secret and reports every new version
// to the log.Wrapper, and to an optional callback:
//
//	ctx, cancel := runtimebp.ShutdownContext(context.Background())
//	defer cancel()
//	err := vaultkv.Watch(ctx, client, vaultkv.WatchConfig{
//		Path:     "myapp/database",
//		Interval: 30 * time.Second,
//		OnChange: func(ev vaultkv.ChangeEvent) {
//			// Reload the database connection.
//		},
//		Logger: log.GlobalWrapper(),
//	})
//
// Secret values are never logged, only paths, field counts and versions.
package vaultkv
