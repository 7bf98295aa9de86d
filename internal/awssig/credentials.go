package awssig

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

const (
	credentialsPath           = "latest/meta-data/iam/security-credentials"
	metadataTokenHeader       = "X-aws-ec2-metadata-token"
	metadataTokenTTLHeader    = "X-aws-ec2-metadata-token-ttl-seconds"
	metadataTokenTTLSeconds   = "600"
)

// instanceCredentials is the JSON shape IMDS returns under
// .../iam/security-credentials/<role>.
type instanceCredentials struct {
	AccessKeyID     string    `json:"AccessKeyId"`
	SecretAccessKey string    `json:"SecretAccessKey"`
	Token           string    `json:"Token"`
	Expiration      time.Time `json:"Expiration"`
}

// InstanceCreds retrieves temporary credentials from the EC2 instance
// metadata service: IMDSv2 via a PUT-obtained session token with a 600s TTL,
// falling back to IMDSv1 (no token) on a 403 response when imdsv1Fallback is
// set. The returned TemporaryToken carries Expiration so a caller can
// refresh proactively instead of waiting for a request to fail.
func InstanceCreds(ctx context.Context, client types.HttpClient, endpoint string, imdsv1Fallback bool) (types.TemporaryToken[*types.AwsCredential], error) {
	var zero types.TemporaryToken[*types.AwsCredential]

	tokenResp, err := client.SendRequest(ctx, &types.HttpRequest{
		Method: "PUT",
		URL:    endpoint + "/latest/api/token",
		Headers: map[string][]string{
			metadataTokenTTLHeader: {metadataTokenTTLSeconds},
		},
	})
	if err != nil {
		return zero, errors.New(errors.Transport, "failed to fetch instance metadata token").
			WithComponent("awssig").WithCause(err)
	}
	defer tokenResp.Body.Close()

	var token string
	switch tokenResp.StatusCode {
	case 200:
		data, err := io.ReadAll(tokenResp.Body)
		if err != nil {
			return zero, errors.New(errors.Transport, "failed to read instance metadata token").WithComponent("awssig").WithCause(err)
		}
		token = string(data)
	case 403:
		if !imdsv1Fallback {
			return zero, errors.New(errors.Authorize, "instance metadata token request forbidden and IMDSv1 fallback disabled").WithComponent("awssig")
		}
	default:
		return zero, errors.New(errors.Transport, "unexpected instance metadata token status").
			WithComponent("awssig").WithContext("status", strconv.Itoa(tokenResp.StatusCode))
	}

	roleHeaders := map[string][]string{}
	if token != "" {
		roleHeaders[metadataTokenHeader] = []string{token}
	}

	roleResp, err := client.SendRequest(ctx, &types.HttpRequest{
		Method:  "GET",
		URL:     endpoint + "/" + credentialsPath + "/",
		Headers: roleHeaders,
	})
	if err != nil {
		return zero, errors.New(errors.Transport, "failed to fetch instance role name").WithComponent("awssig").WithCause(err)
	}
	defer roleResp.Body.Close()
	roleBytes, err := io.ReadAll(roleResp.Body)
	if err != nil {
		return zero, errors.New(errors.Transport, "failed to read instance role name").WithComponent("awssig").WithCause(err)
	}
	role := string(roleBytes)

	credsResp, err := client.SendRequest(ctx, &types.HttpRequest{
		Method:  "GET",
		URL:     endpoint + "/" + credentialsPath + "/" + role,
		Headers: roleHeaders,
	})
	if err != nil {
		return zero, errors.New(errors.Transport, "failed to fetch instance credentials").WithComponent("awssig").WithCause(err)
	}
	defer credsResp.Body.Close()

	var creds instanceCredentials
	if err := json.NewDecoder(credsResp.Body).Decode(&creds); err != nil {
		return zero, errors.New(errors.InvalidData, "malformed instance credentials JSON").WithComponent("awssig").WithCause(err)
	}

	return types.TemporaryToken[*types.AwsCredential]{
		Token: &types.AwsCredential{
			KeyID:     creds.AccessKeyID,
			SecretKey: creds.SecretAccessKey,
			Token:     creds.Token,
		},
		Expiration: creds.Expiration,
	}, nil
}
