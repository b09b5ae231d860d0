package snapdredge

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/inconshreveable/log15"
)

// fakeEC2 satisfies ec2iface.EC2API via embedding; only the operations
// the Survey issues are overridden.
type fakeEC2 struct {
	ec2iface.EC2API

	describeImages                 func(*ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error)
	describeSnapshotsPages         func(*ec2.DescribeSnapshotsInput, func(*ec2.DescribeSnapshotsOutput, bool) bool) error
	describeLaunchTemplateVersions func(*ec2.DescribeLaunchTemplateVersionsInput) (*ec2.DescribeLaunchTemplateVersionsOutput, error)

	snapshotsPagesCalls int
}

func (f *fakeEC2) DescribeImages(input *ec2.DescribeImagesInput) (*ec2.DescribeImagesOutput, error) {
	return f.describeImages(input)
}

func (f *fakeEC2) DescribeSnapshotsPages(input *ec2.DescribeSnapshotsInput, fn func(*ec2.DescribeSnapshotsOutput, bool) bool) error {
	f.snapshotsPagesCalls++
	return f.describeSnapshotsPages(input, fn)
}

func (f *fakeEC2) DescribeLaunchTemplateVersions(input *ec2.DescribeLaunchTemplateVersionsInput) (*ec2.DescribeLaunchTemplateVersionsOutput, error) {
	return f.describeLaunchTemplateVersions(input)
}

type fakeSTS struct {
	stsiface.STSAPI

	account string
	err     error
}

func (f *fakeSTS) GetCallerIdentity(*sts.GetCallerIdentityInput) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Account: &f.account}, nil
}

type fakeASG struct {
	autoscalingiface.AutoScalingAPI

	describeLaunchConfigurations func(*autoscaling.DescribeLaunchConfigurationsInput) (*autoscaling.DescribeLaunchConfigurationsOutput, error)
}

func (f *fakeASG) DescribeLaunchConfigurations(input *autoscaling.DescribeLaunchConfigurationsInput) (*autoscaling.DescribeLaunchConfigurationsOutput, error) {
	return f.describeLaunchConfigurations(input)
}

// dummySession builds a session with static credentials so that New
// can be exercised without touching shared config files or the network.
func dummySession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String("us-east-1"),
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", ""),
	})
	if err != nil {
		t.Fatalf("building dummy session: %v", err)
	}
	return sess
}

func testLogger() log15.Logger {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	return logger
}

func testSurvey(ec2svc ec2iface.EC2API, stssvc stsiface.STSAPI, asgsvc autoscalingiface.AutoScalingAPI) *Survey {
	return &Survey{
		profile: "test",
		region:  "us-east-1",
		workers: 4,
		ec2svc:  ec2svc,
		stssvc:  stssvc,
		asgsvc:  asgsvc,
		log:     testLogger(),
	}
}
