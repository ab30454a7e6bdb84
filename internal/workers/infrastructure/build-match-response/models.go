// internal/workers/infrastructure/build-match-response/models.go
package buildmatchresponse

type Input struct {
	RequestId string                 `json:"requestId"`
	TaskType  string                 `json:"taskType,omitempty"`
	Data      map[string]interface{} `json:"data"`
}

type Output struct {
	Response ResponsePayload `json:"response"`
}

type ResponsePayload struct {
	RequestId string                 `json:"requestId"`
	Status    string                 `json:"status"`
	Data      map[string]interface{} `json:"data"`
	Metadata  ResponseMetadata       `json:"metadata"`
}

type ResponseMetadata struct {
	Timestamp string `json:"timestamp"` // ISO 8601
	Version   string `json:"version"`
}
