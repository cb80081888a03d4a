// Package password hashea contraseñas con argon2id en formato PHC, el valor
// que se guarda en PasswordHash.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash indica un PasswordHash que no es un PHC argon2id válido.
var ErrMalformedHash = errors.New("password: malformed argon2id hash")

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password: empty password")
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

type decoded struct {
	params Params
	salt   []byte
	key    []byte
}

func decode(phc string) (decoded, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return decoded{}, ErrMalformedHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return decoded{}, ErrMalformedHash
	}
	var d decoded
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return decoded{}, ErrMalformedHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return decoded{}, ErrMalformedHash
		}
		switch k {
		case "m":
			d.params.Memory = uint32(n)
		case "t":
			d.params.Time = uint32(n)
		case "p":
			if n > 255 {
				return decoded{}, ErrMalformedHash
			}
			d.params.Parallelism = uint8(n)
		default:
			return decoded{}, ErrMalformedHash
		}
	}
	if d.params.Memory == 0 || d.params.Time == 0 || d.params.Parallelism == 0 {
		return decoded{}, ErrMalformedHash
	}
	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return decoded{}, ErrMalformedHash
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return decoded{}, ErrMalformedHash
	}
	d.params.KeyLen = uint32(len(d.key))
	return d, nil
}

// Verify compara plain contra el hash en tiempo constante.
func Verify(plain, phc string) bool {
	d, err := decode(phc)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(plain), d.salt, d.params.Time, d.params.Memory, d.params.Parallelism, d.params.KeyLen)
	return subtle.ConstantTimeCompare(key, d.key) == 1
}

// NeedsRehash reporta si el hash fue hecho con parámetros distintos de p.
func NeedsRehash(phc string, p Params) bool {
	d, err := decode(phc)
	if err != nil {
		return true
	}
	return d.params != p
}
