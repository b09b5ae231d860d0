package snapdredge

import (
	"strings"

	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// partition splits completed outcomes into attached (one or more
// referencing AMIs) and unattached (none). Failed lookups land in
// neither; they were already warned about when collected. The split is
// insensitive to outcome order beyond preserving it within each result.
func partition(outcomes []Outcome) (attached, unattached []Outcome) {
	for _, outcome := range outcomes {
		switch outcome.Result {
		case ResultAttached:
			attached = append(attached, outcome)
		case ResultUnattached:
			unattached = append(unattached, outcome)
		case ResultLookupFailed:
			// dropped from both tables
		}
	}
	return attached, unattached
}

// checkLaunchReferences scans launch templates and launch
// configurations for direct block-device references to snapshots that
// classified as unattached, and logs a warning per hit. The exported
// tables are not altered; this exists because a launch template can
// reference a snapshot with no AMI in between, so an unattached
// snapshot is not automatically safe to delete. Failures here are
// logged and swallowed since the check is advisory.
func (s *Survey) checkLaunchReferences(unattached []Outcome) {
	lts, err := s.describeLaunchTemplates()
	if err != nil {
		s.log.Warn("skipping launch reference check", "error", err.Error())
		return
	}
	lcs, err := s.describeLaunchConfigurations()
	if err != nil {
		s.log.Warn("skipping launch reference check", "error", err.Error())
		return
	}
	for _, outcome := range unattached {
		refs := launchRefsForSnapshot(lts, lcs, outcome.SnapshotID)
		if len(refs) > 0 {
			s.log.Warn("snapshot has no AMI but is referenced by launch infrastructure",
				"snapshot", outcome.SnapshotID,
				"referencedBy", strings.Join(refs, "|"),
			)
		}
	}
}

// describeLaunchTemplates describes the latest version of every launch
// template for the account including pagination handling.
func (s *Survey) describeLaunchTemplates() (lts []*ec2.LaunchTemplateVersion, err error) {
	s.log.Debug("grabbing all latest launch template versions")
	ltVersionLatest := "$Latest"
	var versions []*string
	versions = append(versions, &ltVersionLatest)
	input := ec2.DescribeLaunchTemplateVersionsInput{
		Versions: versions,
	}
	results, err := s.ec2svc.DescribeLaunchTemplateVersions(&input)
	if err != nil {
		return lts, err
	}
	lts = results.LaunchTemplateVersions
	i := 2
	max := 50
	for i < max {
		s.log.Debug("handling launchtemplate results", "page", i)
		if results.NextToken != nil {
			input = ec2.DescribeLaunchTemplateVersionsInput{
				NextToken: results.NextToken,
			}
			results, err = s.ec2svc.DescribeLaunchTemplateVersions(&input)
			if err != nil {
				return lts, err
			}
			lts = append(lts, results.LaunchTemplateVersions...)
		} else {
			break
		}
		i += 1
	}
	return lts, err
}

// describeLaunchConfigurations describes all launch configurations for
// the account including pagination handling.
func (s *Survey) describeLaunchConfigurations() (lcs []*autoscaling.LaunchConfiguration, err error) {
	s.log.Debug("grabbing all launch configurations")
	input := autoscaling.DescribeLaunchConfigurationsInput{}
	results, err := s.asgsvc.DescribeLaunchConfigurations(&input)
	if err != nil {
		return lcs, err
	}
	lcs = results.LaunchConfigurations
	i := 2
	max := 50
	for i < max {
		s.log.Debug("handling launchconfig results", "page", i)
		if results.NextToken != nil {
			input = autoscaling.DescribeLaunchConfigurationsInput{
				NextToken: results.NextToken,
			}
			results, err = s.asgsvc.DescribeLaunchConfigurations(&input)
			if err != nil {
				return lcs, err
			}
			lcs = append(lcs, results.LaunchConfigurations...)
		} else {
			break
		}
		i += 1
	}
	return lcs, err
}

// launchRefsForSnapshot returns the names of any launch templates or
// launch configurations whose block device mappings reference the
// given snapshot id directly.
func launchRefsForSnapshot(lts []*ec2.LaunchTemplateVersion, lcs []*autoscaling.LaunchConfiguration, snapshotID string) (names []string) {
	for _, lt := range lts {
		if lt.LaunchTemplateData == nil || lt.LaunchTemplateName == nil {
			continue
		}
		for _, bdm := range lt.LaunchTemplateData.BlockDeviceMappings {
			if bdm.Ebs != nil && bdm.Ebs.SnapshotId != nil {
				if *bdm.Ebs.SnapshotId == snapshotID {
					names = append(names, *lt.LaunchTemplateName)
				}
			}
		}
	}
	for _, lc := range lcs {
		if lc.LaunchConfigurationName == nil {
			continue
		}
		for _, bdm := range lc.BlockDeviceMappings {
			if bdm.Ebs != nil && bdm.Ebs.SnapshotId != nil {
				if *bdm.Ebs.SnapshotId == snapshotID {
					names = append(names, *lc.LaunchConfigurationName)
				}
			}
		}
	}
	return dedupeString(names)
}
