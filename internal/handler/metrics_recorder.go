package handler

import "time"

// MetricsRecorder はハンドラー層が記録するメトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordVoteCast()
	RecordImageProxyLatency(duration time.Duration)
}

// noopMetrics は何も記録しないMetricsRecorder。テストおよび未設定時に使用する。
type noopMetrics struct{}

func (noopMetrics) RecordLoginSuccess()                   {}
func (noopMetrics) RecordLoginFailure(string)             {}
func (noopMetrics) RecordVoteCast()                       {}
func (noopMetrics) RecordImageProxyLatency(time.Duration) {}
