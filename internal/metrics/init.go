package metrics

// InitializeMetrics pre-populates the label combinations we know about so
// they are exported from the first scrape.
func InitializeMetrics(plugins []string) {
	for _, p := range plugins {
		TasksDispatched.WithLabelValues(p)
		TaskDuration.WithLabelValues(p)
		for _, r := range []string{"success", "failure"} {
			TaskResults.WithLabelValues(p, r)
		}
	}

	for _, kind := range []string{"create", "pending"} {
		ScanJobsTotal.WithLabelValues(kind)
		ScanJobDuration.WithLabelValues(kind)
	}

	for _, stage := range []string{"discovering", "persisting_folders", "persisting_basket", "enqueuing", "scanning", "draining"} {
		ScanStageErrors.WithLabelValues(stage)
	}

	for _, loader := range []string{"imaging", "vips", "ffmpeg", "exif", "psd"} {
		ImageDecodeByFormat.WithLabelValues(loader, "success")
		ImageDecodeByFormat.WithLabelValues(loader, "error")
	}

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		ExternalToolRuns.WithLabelValues(tool, "success")
		ExternalToolRuns.WithLabelValues(tool, "error")
	}
}
