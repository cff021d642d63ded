// Package secrets reads secrets mounted into a container as one file per
// secret, the way podman and docker expose them with --secret.
//
// Reader should be used to access the secrets root (DefaultRoot,
// /run/secrets):
//
//	reader := secrets.NewReader(secrets.Config{}, log.GlobalWrapper())
//	password, err := reader.ReadOrEnv("db_password", "DB_PASSWORD")
//	if err != nil {
//		// ErrPermissionDenied, ErrEmptySecret or ErrInvalidName.
//	}
//	if password == nil {
//		// Neither the file nor the environment variable is set.
//	}
//
// Every secret file must be readable by its owner only (mode 400 or 600).
// A file with any group or other permission bit set is refused before it is
// opened, see PermissionError.
//
// Secret values are never logged. The Secret type also renders as a redaction
// marker when formatted, so passing one to a logger by mistake does not leak
// it.
package secrets
