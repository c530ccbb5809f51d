package originsource

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/vicompany/hardened-web/internal/xerrors"
)

// SSMAPI is the part of *ssm.Client the fetcher uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Fetcher returns the current origin from wherever it is stored.
type Fetcher interface {
	FetchOrigin(ctx context.Context) (string, error)
}

// SSMFetcher reads the origin from a (possibly SecureString) parameter.
type SSMFetcher struct {
	Client SSMAPI
	Param  string
}

func NewSSMFetcher(client SSMAPI, param string) (*SSMFetcher, error) {
	if client == nil {
		return nil, xerrors.New("ssm client is required")
	}
	if param == "" {
		return nil, xerrors.New("ssm parameter name is required")
	}
	return &SSMFetcher{Client: client, Param: param}, nil
}

// FetchOrigin returns the trimmed parameter value after validating it.
func (f *SSMFetcher) FetchOrigin(ctx context.Context) (string, error) {
	out, err := f.Client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(f.Param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", f.Param)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", f.Param)
	}
	origin := strings.TrimSpace(*out.Parameter.Value)
	if err := ValidateOrigin(origin); err != nil {
		return "", xerrors.Wrapf(err, "SSM parameter %s", f.Param)
	}
	return origin, nil
}
