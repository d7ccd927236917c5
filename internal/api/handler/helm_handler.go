package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onprem-cd/internal/service"
	"onprem-cd/pkg/constants"
	"onprem-cd/pkg/responses"
)

const helmIndexFile = "index.yaml"

var errReadOnlyRepo = responses.New(responses.CodeForbidden, "helm 仓库为只读")

// HelmHandler 只读 helm 仓库, 每个 helm 用户只能看到自己的目录
type HelmHandler struct {
	helmService service.HelmRepoService
}

func NewHelmHandler(helmService service.HelmRepoService) *HelmHandler {
	return &HelmHandler{
		helmService: helmService,
	}
}

// Fetch 下载 index.yaml、chart 归档或 values 文件
// @Summary helm 仓库文件
// @Tags Helm
// @Produce octet-stream
// @Param repo path string true "仓库名"
// @Param filename path string true "文件名"
// @Success 200 {file} file
// @Router /helm/{repo}/{filename} [get]
func (h *HelmHandler) Fetch(c *gin.Context) {
	user := c.GetString(constants.ContextKeyHelmUser)
	filename := c.Param("filename")

	file, err := h.helmService.Fetch(c.Request.Context(), c.Param("repo"), user, filename)
	if err != nil {
		responses.AbortWithError(c, err)
		return
	}

	if filename == helmIndexFile {
		c.Header("Cache-Control", "no-cache")
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// ReadOnly 仓库不接受上传或删除
// @Summary helm 仓库写操作
// @Tags Helm
// @Produce json
// @Failure 403 {object} responses.Response
// @Router /helm/{repo}/{path} [post]
func (h *HelmHandler) ReadOnly(c *gin.Context) {
	responses.AbortWithError(c, errReadOnlyRepo)
}
