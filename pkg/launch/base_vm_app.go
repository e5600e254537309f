package launch

import (
	"context"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

// BaseVMAppHandler is a BaseAppHandler whose application is reached at
// the instance's public address.
type BaseVMAppHandler struct {
	BaseAppHandler
}

var _ Handler = (*BaseVMAppHandler)(nil)

// ProcessAppConfig sends no user data.
func (h *BaseVMAppHandler) ProcessAppConfig(name string, cfg CloudConfig, creds cloud.Credentials, appConfig map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (h *BaseVMAppHandler) LaunchApp(ctx context.Context, r Reporter, req Request) (Result, error) {
	result, err := h.BaseAppHandler.LaunchApp(ctx, r, req)
	if err != nil {
		return nil, err
	}
	cl := result["cloudLaunch"].(map[string]interface{})
	cl["applicationURL"] = cl["publicIP"]
	return result, nil
}
