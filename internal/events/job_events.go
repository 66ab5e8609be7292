package events

import "github.com/jobvector/jobvector/internal/entities"

const (
	JobPostedTopic   = "jobs:posted"
	JobEnrichedTopic = "jobs:enriched"
)

// JobPosted carries a raw posting into the enrichment worker.
type JobPosted struct {
	Job entities.Job
}

// JobEnriched is published after a posting has been enriched and stored.
type JobEnriched struct {
	JobID    string
	Position string
	Company  string
}
