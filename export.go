package snapdredge

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"
)

// OutputFilename builds the output filename for one table from the
// run's identifying parts and a clock reading. It is pure: two calls
// within the same second with identical arguments produce identical
// names, so re-invoking within a second overwrites the earlier file.
func OutputFilename(prefix, profile, region string, t time.Time) string {
	stamp := t.Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_snapshots_%s_%s_%s.csv", prefix, profile, region, stamp)
}

// joinImageIDs renders a snapshot's referencing AMI ids as the single
// field the attached table carries, or the literal None when there are
// no ids.
func joinImageIDs(imageIDs []string) string {
	if len(imageIDs) == 0 {
		return "None"
	}
	return strings.Join(imageIDs, ", ")
}

// WriteAttachedTable writes outcomes to path as csv with columns
// SnapshotId and AssociatedAMIs, overwriting any existing file there.
func WriteAttachedTable(outcomes []Outcome, path string) (err error) {
	csvfile, err := os.Create(path)
	if err != nil {
		return err
	}
	csvwriter := csv.NewWriter(csvfile)
	header := []string{"SnapshotId", "AssociatedAMIs"}
	csvwriter.Write(header)
	for _, outcome := range outcomes {
		row := []string{outcome.SnapshotID, joinImageIDs(outcome.ImageIDs)}
		csvwriter.Write(row)
	}
	csvwriter.Flush()
	if err = csvwriter.Error(); err != nil {
		csvfile.Close()
		return err
	}
	return csvfile.Close()
}

// WriteUnattachedTable writes outcomes to path as csv with the single
// column SnapshotId, overwriting any existing file there.
func WriteUnattachedTable(outcomes []Outcome, path string) (err error) {
	csvfile, err := os.Create(path)
	if err != nil {
		return err
	}
	csvwriter := csv.NewWriter(csvfile)
	header := []string{"SnapshotId"}
	csvwriter.Write(header)
	for _, outcome := range outcomes {
		csvwriter.Write([]string{outcome.SnapshotID})
	}
	csvwriter.Flush()
	if err = csvwriter.Error(); err != nil {
		csvfile.Close()
		return err
	}
	return csvfile.Close()
}

// ExportAttached writes the attached outcomes of the completed Survey
// to the attached outfile as csv.
func (s *Survey) ExportAttached() (err error) {
	err = WriteAttachedTable(s.Attached, s.outfileAttached)
	if err != nil {
		return err
	}
	s.log.Info("wrote attached snapshots to file", "filename", s.outfileAttached, "rows", len(s.Attached))
	return err
}

// ExportUnattached writes the unattached outcomes of the completed
// Survey to the unattached outfile as csv.
func (s *Survey) ExportUnattached() (err error) {
	err = WriteUnattachedTable(s.Unattached, s.outfileUnattached)
	if err != nil {
		return err
	}
	s.log.Info("wrote unattached snapshots to file", "filename", s.outfileUnattached, "rows", len(s.Unattached))
	return err
}
