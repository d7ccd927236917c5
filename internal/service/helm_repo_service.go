package service

import (
	"context"
	"errors"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/pkg/crypto"
	"onprem-cd/internal/repository"
	pkgErrors "onprem-cd/pkg/responses"
)

// HelmFile 仓库文件
type HelmFile struct {
	Data        []byte
	ContentType string
}

// HelmRepoService 只读 helm 仓库, 按 basic auth 用户定位目录
type HelmRepoService interface {
	Authenticate(repoName, userName, password string) error
	Fetch(ctx context.Context, repoName, userName, filename string) (*HelmFile, error)
}

type helmRepoService struct {
	subscriberRepo repository.SubscriberRepository
	client         *blobstore.RepoClient
}

func NewHelmRepoService(subscriberRepo repository.SubscriberRepository, client *blobstore.RepoClient) HelmRepoService {
	return &helmRepoService{
		subscriberRepo: subscriberRepo,
		client:         client,
	}
}

func (s *helmRepoService) Authenticate(repoName, userName, password string) error {
	user, err := s.subscriberRepo.FindHelmUser(repoName, userName)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return pkgErrors.ErrHelmUserInvalid
		}
		return err
	}
	if !crypto.CheckPassword(password, user.PasswordHash) {
		return pkgErrors.ErrHelmUserInvalid
	}
	return nil
}

func (s *helmRepoService) Fetch(ctx context.Context, repoName, userName, filename string) (*HelmFile, error) {
	data, contentType, err := s.client.Fetch(ctx, blobstore.Directory(repoName, userName), filename)
	if err != nil {
		return nil, toAppError(err)
	}
	return &HelmFile{Data: data, ContentType: contentType}, nil
}
