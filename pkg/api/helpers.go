package api

import "time"

// RecordStageAndStepInfo records timing details about a build stage and step.
func RecordStageAndStepInfo(stages []StageInfo, stageName StageName, stepName StepName, startTime time.Time, endTime time.Time) []StageInfo {
	// If the stage already exists, update its duration and append the step.
	for i, stage := range stages {
		if stage.Name == stageName {
			stages[i].Duration = endTime.Sub(stages[i].StartTime)
			stages[i].Steps = append(stages[i].Steps, StepInfo{
				Name:      stepName,
				StartTime: startTime,
				Duration:  endTime.Sub(startTime),
			})
			return stages
		}
	}

	return append(stages, StageInfo{
		Name:      stageName,
		StartTime: startTime,
		Duration:  endTime.Sub(startTime),
		Steps: []StepInfo{{
			Name:      stepName,
			StartTime: startTime,
			Duration:  endTime.Sub(startTime),
		}},
	})
}
