package main

import (
	"context"
	"fmt"
	"os"

	"odinc/internal/buildpipeline"
	"odinc/internal/ui"
)

type buildOutcome struct {
	result *buildpipeline.BuildResult
	err    error
}

// runBuildWithUI runs the build in the background and shows its events
// in the progress view until the event channel closes.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (*buildpipeline.BuildResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	uiErr := ui.Run(title, events, os.Stdout)
	// the view may quit early; keep the producer from blocking
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
