package service

import (
	"errors"

	"google.golang.org/grpc/status"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/dependency"
	"onprem-cd/internal/core/dockerimage"
	"onprem-cd/internal/core/publisher"
	pkgErrors "onprem-cd/pkg/responses"
)

// toAppError 将领域错误映射为业务错误码, 已是 AppError 的原样返回
func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *pkgErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var validationErr *publisher.ChartValidationError
	switch {
	case errors.As(err, &validationErr):
		return pkgErrors.Wrap(pkgErrors.CodeValidationError, "chart 校验失败", err)
	case errors.Is(err, dependency.ErrUnknownDependency),
		errors.Is(err, dependency.ErrUnknownOverrideKey),
		errors.Is(err, dependency.ErrUnknownValueType),
		errors.Is(err, dependency.ErrInvalidValue):
		return pkgErrors.Wrap(pkgErrors.CodeConfigError, "依赖配置错误", err)
	case errors.Is(err, dependency.ErrInvalidConfig),
		errors.Is(err, dockerimage.ErrInvalidDockerImageURL),
		errors.Is(err, chart.ErrEmptySecretName),
		errors.Is(err, blobstore.ErrInvalidFileName):
		return pkgErrors.Wrap(pkgErrors.CodeBadRequest, err.Error(), err)
	case errors.Is(err, blobstore.ErrNotFound):
		return pkgErrors.Wrap(pkgErrors.CodeNotFound, "文件不存在", err)
	}

	if _, ok := status.FromError(err); ok {
		return pkgErrors.Wrap(pkgErrors.CodeRemoteError, "远程服务调用失败", err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeInternalError, "内部服务器错误", err)
}
