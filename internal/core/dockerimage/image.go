// Package dockerimage 解析服务配置中的容器镜像引用
package dockerimage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidDockerImageURL 镜像引用格式不合法
var ErrInvalidDockerImageURL = errors.New("invalid docker image url")

// KnownRegistries 可识别的镜像仓库域名, 其他域名前缀会被视为镜像路径的一部分
var KnownRegistries = []string{"docker.io", "ghcr.io", "quay.io", "gcr.io", "registry.gitlab.com"}

var imagePattern = regexp.MustCompile(
	`^(?:(docker\.io|ghcr\.io|quay\.io|gcr\.io|registry\.gitlab\.com)/)?((?:[^/]+/)*[^/:]+)(?::([^/]+))?$`,
)

// RegistryType 镜像仓库类型
type RegistryType string

const (
	RegistryTypeUnspecified RegistryType = "REGISTRY_TYPE_UNSPECIFIED"
	RegistryTypeDocker      RegistryType = "REGISTRY_TYPE_DOCKER"
	RegistryTypeGithub      RegistryType = "REGISTRY_TYPE_GITHUB"
	RegistryTypeGitlab      RegistryType = "REGISTRY_TYPE_GITLAB"
)

// Image 解析后的镜像引用, Registry 为 nil、Tag 为空表示未指定
type Image struct {
	Registry *string
	Name     string
	Tag      string
}

// Parse 解析镜像引用, 如 nginx:latest, ghcr.io/owner/app:v1
func Parse(ref string) (*Image, error) {
	url := strings.TrimSpace(ref)
	if url == "" {
		return nil, fmt.Errorf("%w: image url is empty", ErrInvalidDockerImageURL)
	}

	m := imagePattern.FindStringSubmatch(url)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDockerImageURL, ref)
	}
	img := &Image{Registry: lo.EmptyableToPtr(m[1]), Name: m[2], Tag: m[3]}

	if err := img.validate(url); err != nil {
		return nil, err
	}
	return img, nil
}

func (i *Image) validate(url string) error {
	switch {
	case strings.Contains(url, "::"):
		return fmt.Errorf("%w: double colon in %q", ErrInvalidDockerImageURL, url)
	case strings.Count(url, ":") > 1:
		return fmt.Errorf("%w: multiple colons in %q", ErrInvalidDockerImageURL, url)
	case strings.HasPrefix(url, "/"), strings.HasSuffix(url, "/"):
		return fmt.Errorf("%w: leading or trailing slash in %q", ErrInvalidDockerImageURL, url)
	case strings.Contains(url, ":") && i.Tag == "":
		return fmt.Errorf("%w: invalid tag format in %q", ErrInvalidDockerImageURL, url)
	}
	return nil
}

// String 重新拼装镜像引用, withTag 为 false 时不带 tag
func (i *Image) String(withTag bool) string {
	s := i.Name
	if i.Registry != nil {
		s = *i.Registry + "/" + i.Name
	}
	if withTag && i.Tag != "" {
		s += ":" + i.Tag
	}
	return s
}

// RegistryType 未指定仓库时按 docker hub 处理
func (i *Image) RegistryType() RegistryType {
	switch lo.FromPtr(i.Registry) {
	case "", "docker.io":
		return RegistryTypeDocker
	case "ghcr.io":
		return RegistryTypeGithub
	case "registry.gitlab.com":
		return RegistryTypeGitlab
	default:
		return RegistryTypeUnspecified
	}
}
