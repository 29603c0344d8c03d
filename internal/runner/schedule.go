package runner

import (
	"fmt"

	"github.com/robfig/cron/v3"

	logx "topicherd/pkg/logx"
)

// startRescan registers the optional periodic spool rescan. The parser accepts
// 5- and 6-field (with seconds) cron specs plus descriptors like "@every 1m".
// Returns a stop function, or (nil, nil) when no schedule is configured.
func (r *Runner) startRescan(spec string, trigger func()) (func(), error) {
	if spec == "" {
		return nil, nil
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(spec, trigger); err != nil {
		return nil, fmt.Errorf("invalid RESCAN_SCHEDULE %q: %w", spec, err)
	}
	c.Start()
	r.log.Info("spool rescan scheduled", logx.String("spec", spec))

	return func() {
		<-c.Stop().Done()
	}, nil
}
