package chart

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/strvals"
)

// Values 按 chart 描述渲染 values 树, 用于预览与客户端 values 文件
// 依赖以 values_alias 为顶层 key, override 路径展开为嵌套结构
func Values(params *ChartParams) (chartutil.Values, error) {
	vals := chartutil.Values{}

	services := map[string]interface{}{}
	for _, svc := range params.Services {
		services[svc.Name] = serviceValues(svc)
	}
	vals["services"] = services

	for _, dep := range params.Dependencies {
		depVals := map[string]interface{}{}
		for _, o := range dep.Overrides {
			raw, err := json.Marshal(o.Value)
			if err != nil {
				return nil, err
			}
			if err := strvals.ParseJSON(fmt.Sprintf("%s=%s", o.Path, raw), depVals); err != nil {
				return nil, fmt.Errorf("dependency %s override %s: %w", dep.ValuesAlias, o.Path, err)
			}
		}
		vals[dep.ValuesAlias] = depVals
	}
	return vals, nil
}

// ValuesYAML 渲染为 YAML
func ValuesYAML(params *ChartParams) ([]byte, error) {
	vals, err := Values(params)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(map[string]interface{}(vals))
}

func serviceValues(svc *ServiceParams) map[string]interface{} {
	out := map[string]interface{}{
		"replicaCount": svc.ReplicaCount,
	}
	if svc.Image != nil {
		out["image"] = map[string]interface{}{
			"repository": svc.Image.Name,
			"tag":        svc.Image.Tag,
			"pullPolicy": svc.Image.PullPolicy,
		}
	}
	if svc.Resources != nil {
		out["resources"] = map[string]interface{}{
			"requests": map[string]interface{}{"cpu": svc.Resources.CPUCoresRequested, "memory": svc.Resources.MemoryBytesRequested},
			"limits":   map[string]interface{}{"cpu": svc.Resources.CPUCoresLimit, "memory": svc.Resources.MemoryBytesLimit},
		}
	}
	if svc.EnvironmentConfig != nil && len(svc.EnvironmentConfig.Secrets) > 0 {
		secrets := make([]interface{}, 0, len(svc.EnvironmentConfig.Secrets))
		for _, s := range svc.EnvironmentConfig.Secrets {
			secrets = append(secrets, map[string]interface{}{"name": s.Name, "key": s.EnvironmentKey})
		}
		out["secrets"] = secrets
	}
	return out
}
