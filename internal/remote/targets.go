package remote

import (
	"context"
	"net/url"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

// ListTargetInstances returns the target instances the service knows about.
func (c *Client) ListTargetInstances(ctx context.Context) ([]models.TargetInstance, error) {
	var resp struct {
		Instances []models.TargetInstance `json:"instances"`
	}
	if err := c.GetJSON(ctx, "/target-instances", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Instances {
		if resp.Instances[i].Status == "" {
			resp.Instances[i].Status = models.StatusUnknown
		}
	}
	return resp.Instances, nil
}

// TestTargetInstance asks the service to test its connection to an
// instance and returns the raw status string it reports.
func (c *Client) TestTargetInstance(ctx context.Context, instanceID string) (string, error) {
	var resp struct {
		InstanceID string `json:"instance_id"`
		Status     string `json:"status"`
	}
	if _, err := c.PostJSON(ctx, "/target-instances/"+url.PathEscape(instanceID)+"/test", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
