package keystore

import "errors"

var errInvalidWIF = errors.New("keystore: invalid private key string (cannot pass base58 decode)")
