// Package snapdredge helps you clean up your AWS bill by sorting the
// EBS snapshots in an account into snapshots that still back an AMI
// and snapshots that back nothing at all.
//
// Every AMI built from an EBS-backed instance registers block device
// mappings that pin one or more snapshots. Deleting such a snapshot
// breaks the image, so before any snapshot cleanup you want two lists:
// snapshots attached to at least one AMI (keep, or deregister the AMI
// first) and snapshots attached to none (candidates for deletion).
// In accounts with years of AMI churn producing those lists by hand
// means thousands of describe calls, which is what this package
// automates.
//
// Survey Overview
//
// A Survey fetches every snapshot the account owns (all pages), then
// runs one filtered DescribeImages lookup per snapshot through a
// fixed-size worker pool so outbound request concurrency stays capped
// no matter how many snapshots the account holds. Each lookup yields
// exactly one outcome: attached with the referencing AMI ids,
// unattached, or failed. Failed lookups are logged as warnings and
// excluded from the exported tables; they never abort the run.
//
// Optionally the Survey can also warn about unattached snapshots that
// are referenced directly by a launch template or launch configuration
// block device mapping, since those are not safe to delete either even
// though no AMI points at them.
//
// Usage
//
// Create a snapdredge.Survey and call the Start() method on it. After
// the survey is complete call ExportAttached() and ExportUnattached()
// to write the two CSV tables.
//
// Sample
//
// Below is a sample main package you could use to run a survey and
// collect results.
//
//   package main
//
//   import (
//   	"github.com/GESkunkworks/snapdredge"
//   )
//
//   func main() {
//   	profile := "default"
//   	region := "us-east-1"
//   	input := snapdredge.SurveyInput{
//   		Profile: &profile,
//   		Region:  &region,
//   	}
//   	srv, err := snapdredge.New(&input)
//   	if err != nil { panic(err) }
//   	err = srv.Start()
//   	if err != nil { panic(err) }
//   	if err = srv.ExportAttached(); err != nil { panic(err) }
//   	if err = srv.ExportUnattached(); err != nil { panic(err) }
//   }
package snapdredge
