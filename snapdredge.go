package snapdredge

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/google/uuid"
	"github.com/inconshreveable/log15"
)

// Sentinel errors for session setup. Callers can distinguish them with
// errors.Is to decide exit behavior.
var (
	// ErrNoCredentials indicates that no usable AWS credentials could be
	// found for the requested profile.
	ErrNoCredentials = errors.New("AWS credentials not found")

	// ErrSessionInit indicates any other failure while setting up the AWS
	// session or verifying the caller identity.
	ErrSessionInit = errors.New("error initializing AWS session")
)

// A Survey contains the properties and methods necessary to enumerate
// the EBS snapshots in an AWS account and sort them into snapshots that
// back at least one AMI (attached) and snapshots that back none
// (unattached). Create a SurveyInput object and pass it to this
// package's New method to get a new Survey. From there call the Start
// method of the Survey. When that is complete the findings can be
// exported using the Export methods.
type Survey struct {
	// After the Start method is complete Attached will contain one
	// outcome per snapshot that is referenced by at least one AMI's
	// block device mapping. This property is exported so that it could
	// be marshalled to another format if the ExportAttached CSV format
	// is not ideal.
	Attached []Outcome

	// After the Start method is complete Unattached will contain one
	// outcome per snapshot that is referenced by no AMI. This property
	// is exported so that it could be marshalled to another format if
	// the ExportUnattached CSV format is not ideal.
	Unattached []Outcome

	account           string
	profile           string
	region            string
	workers           int
	checkLaunchRefs   bool
	showProgress      bool
	outfileAttached   string
	outfileUnattached string
	session           *session.Session
	ec2svc            ec2iface.EC2API
	stssvc            stsiface.STSAPI
	asgsvc            autoscalingiface.AutoScalingAPI
	log               log15.Logger
	runID             string
}

// SurveyInput provides configuration inputs for starting a new Survey
// of the snapshots in an account.
type SurveyInput struct {
	// Named credential profile from the shared AWS config.
	// Default: "default"
	Profile *string

	// Region to survey.
	// Default: "us-east-1"
	Region *string

	// Number of concurrent AMI-association lookups. Each snapshot costs
	// one DescribeImages call so this caps outbound request concurrency
	// regardless of how many snapshots the account holds.
	// Default: 10
	Workers *int

	// When true, snapshots that end up unattached are additionally
	// checked against launch template and launch configuration block
	// device mappings and a warning is logged for any direct reference
	// found. A snapshot can back a launch template with no AMI in
	// between, so unattached alone is not proof of deletability.
	// Default: false
	CheckLaunchRefs *bool

	// When true a progress bar is rendered on stderr while the
	// association lookups run. Disable for non-interactive use.
	// Default: true
	Progress *bool

	// If the ExportAttached method is called on the returned Survey it
	// will write the attached outcomes to this filename in csv format.
	// Default: OutputFilename("attached", profile, region, now)
	OutfileAttached *string

	// If the ExportUnattached method is called on the returned Survey
	// it will write the unattached outcomes to this filename in csv
	// format.
	// Default: OutputFilename("unattached", profile, region, now)
	OutfileUnattached *string

	// Survey uses log15 (https://github.com/inconshreveable/log15)
	// as an opinionated logging framework. If no Logger is provided
	// Survey will set up its own handler to stdout.
	Logger *log15.Logger

	// AWS Session to use. If nil a session is opened from Profile and
	// Region using the shared config files.
	Session *session.Session
}

// New returns a Survey object whose methods can be called to perform a
// snapshot-to-AMI association analysis. This method accepts a
// SurveyInput struct which can be used to set up the Survey inputs. It
// will set default values for any property that was not specified in
// the SurveyInput object.
func New(input *SurveyInput) (srv *Survey, err error) {
	var s Survey
	if input == nil {
		input = &SurveyInput{}
	}

	DefaultProfile := "default"
	if input.Profile == nil {
		input.Profile = &DefaultProfile
	}
	s.profile = *input.Profile

	DefaultRegion := "us-east-1"
	if input.Region == nil {
		input.Region = &DefaultRegion
	}
	s.region = *input.Region

	DefaultWorkers := 10
	if input.Workers == nil {
		input.Workers = &DefaultWorkers
	}
	s.workers = *input.Workers
	if s.workers < 1 {
		s.workers = 1
	}

	if input.CheckLaunchRefs != nil {
		s.checkLaunchRefs = *input.CheckLaunchRefs
	}

	DefaultProgress := true
	if input.Progress == nil {
		input.Progress = &DefaultProgress
	}
	s.showProgress = *input.Progress

	now := time.Now()
	if input.OutfileAttached == nil {
		name := OutputFilename("attached", s.profile, s.region, now)
		input.OutfileAttached = &name
	}
	s.outfileAttached = *input.OutfileAttached

	if input.OutfileUnattached == nil {
		name := OutputFilename("unattached", s.profile, s.region, now)
		input.OutfileUnattached = &name
	}
	s.outfileUnattached = *input.OutfileUnattached

	if input.Logger == nil {
		s.setDefaultLogger()
	} else {
		s.log = *input.Logger
	}
	s.runID = uuid.NewString()
	s.log = s.log.New("run", s.runID[:8])

	if input.Session == nil {
		sess, serr := session.NewSessionWithOptions(session.Options{
			Profile:           s.profile,
			Config:            aws.Config{Region: aws.String(s.region)},
			SharedConfigState: session.SharedConfigEnable,
		})
		if serr != nil {
			return &s, fmt.Errorf("%w: %v", ErrSessionInit, serr)
		}
		input.Session = sess
	}
	s.session = input.Session
	s.ec2svc = ec2.New(s.session)
	s.stssvc = sts.New(s.session)
	s.asgsvc = autoscaling.New(s.session)
	s.log.Info("AWS session initialized", "profile", s.profile, "region", s.region)
	return &s, err
}

// Start kicks off the survey. It verifies credentials, fetches every
// snapshot the account owns, classifies each one against AMI block
// device mappings using the worker pool, and partitions the outcomes.
// After this completes the data can be exported.
func (s *Survey) Start() (err error) {
	err = s.verifyCredentials()
	if err != nil {
		return err
	}
	snaps, err := s.fetchSnapshots()
	if err != nil {
		return fmt.Errorf("fetching snapshots: %w", err)
	}
	outcomes := s.classifyAll(snapshotIDs(snaps))
	s.Attached, s.Unattached = partition(outcomes)
	s.log.Info("partitioned snapshots",
		"attached", len(s.Attached),
		"unattached", len(s.Unattached),
		"failed", len(outcomes)-len(s.Attached)-len(s.Unattached),
	)
	if s.checkLaunchRefs {
		s.checkLaunchReferences(s.Unattached)
	}
	return nil
}

// verifyCredentials makes one STS call before any EC2 activity so that
// missing credentials surface immediately rather than mid-survey. The
// resolved account number scopes the snapshot listing to resources the
// account owns.
func (s *Survey) verifyCredentials() (err error) {
	s.log.Debug("verifying caller identity")
	gci, err := s.stssvc.GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		if isCredentialError(err) {
			return fmt.Errorf("%w for profile %q: %v", ErrNoCredentials, s.profile, err)
		}
		return fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	s.account = *gci.Account
	s.log.Info("verified caller identity", "account", s.account)
	return err
}

// credential error codes as surfaced by the SDK's provider chain and by
// STS when a profile resolves to stale or partial credentials
var credentialErrorCodes = []string{
	"NoCredentialProviders",
	"MissingAuthenticationToken",
	"ExpiredToken",
	"ExpiredTokenException",
	"InvalidClientTokenId",
	"UnrecognizedClientException",
	"SharedConfigProfileNotExistError",
}

func isCredentialError(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return containsString(credentialErrorCodes, aerr.Code())
}

// fetchSnapshots retrieves every snapshot owned by the account,
// traversing all pages of the describe operation. Results are
// concatenated in the order pages are delivered.
func (s *Survey) fetchSnapshots() (snaps []*ec2.Snapshot, err error) {
	s.log.Info("fetching all snapshots", "account", s.account)
	dsi := ec2.DescribeSnapshotsInput{
		OwnerIds: []*string{aws.String(s.account)},
	}
	pageNum := 0
	err = s.ec2svc.DescribeSnapshotsPages(&dsi,
		func(page *ec2.DescribeSnapshotsOutput, lastPage bool) bool {
			pageNum++
			s.log.Debug("processing snapshot page", "page", pageNum, "snapshots", len(page.Snapshots))
			snaps = append(snaps, page.Snapshots...)
			return true
		})
	if err != nil {
		return snaps, err
	}
	s.log.Info("fetched all snapshots", "total", len(snaps), "pages", pageNum)
	return snaps, err
}

func snapshotIDs(snaps []*ec2.Snapshot) (ids []string) {
	for _, snap := range snaps {
		if snap.SnapshotId != nil {
			ids = append(ids, *snap.SnapshotId)
		}
	}
	return ids
}

// AttachedFile returns the filename the attached table is written to.
func (s *Survey) AttachedFile() string {
	return s.outfileAttached
}

// UnattachedFile returns the filename the unattached table is written to.
func (s *Survey) UnattachedFile() string {
	return s.outfileUnattached
}

// setDefaultLogger just sets up a logger for the Survey
// set to Info and stdout by default.
func (s *Survey) setDefaultLogger() {
	s.log = log15.New()
	s.log.SetHandler(
		log15.LvlFilterHandler(
			log15.LvlInfo,
			log15.StreamHandler(os.Stdout, log15.LogfmtFormat()),
		),
	)
}
