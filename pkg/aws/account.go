package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/cloudkeep/confsweep/pkg/utils"
)

// GetAccountID returns the caller's account ID for the inventory header.
func GetAccountID(ctx context.Context, api IdentityAPI) (string, error) {
	resp, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return utils.SafeDeref(resp.Account), nil
}
