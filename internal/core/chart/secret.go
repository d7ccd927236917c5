package chart

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptySecretName secret 的 environment key 为空
var ErrEmptySecretName = errors.New("secret name is empty")

const maxSecretNameLength = 253

var (
	invalidSecretChars = regexp.MustCompile(`[^a-z0-9.\-]`)
	repeatedSeparators = regexp.MustCompile(`[-.]{2,}`)
)

// SecretName 由 environment key 生成合法的 k8s 资源名(DNS-1123 subdomain)
func SecretName(environmentKey string) (string, error) {
	if environmentKey == "" {
		return "", ErrEmptySecretName
	}

	name := strings.ToLower(environmentKey)
	name = invalidSecretChars.ReplaceAllString(name, "-")
	name = repeatedSeparators.ReplaceAllString(name, "-")

	if !isAlphanumeric(name[0]) {
		name = "x" + name
	}
	if !isAlphanumeric(name[len(name)-1]) {
		name += "x"
	}

	if len(name) > maxSecretNameLength {
		name = name[:maxSecretNameLength-1]
		if !isAlphanumeric(name[len(name)-1]) {
			name = name[:len(name)-1] + "x"
		}
	}
	return name, nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
