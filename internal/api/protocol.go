package api

import (
	"encoding/json"
	"fmt"
)

// Inbound event names.
const (
	EventJoinRoom          = "join-room"
	EventFileContentUpdate = "file-content-update"
	EventCreateFile        = "create-file"
	EventCreateFolder      = "create-folder"
	EventDeleteItem        = "delete-item"
	EventCommitMilestone   = "commit-milestone"
	EventInvokeTaskMaster  = "invoke-task-master"
)

// Outbound event names. file-content-update is reused for the delta push.
const (
	EventProjectStateUpdate = "project-state-update"
	EventAgentFeedback      = "agent-feedback"
	EventTaskMasterResponse = "task-master-response"
	EventMilestoneCommitted = "milestone-committed"
	EventOperationError     = "operation-error"
	EventCommitError        = "commit-error"
)

// Envelope is one protocol frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type fileUpdateData struct {
	Room       string `json:"room"`
	FilePath   string `json:"filePath"`
	NewContent string `json:"newContent"`
}

type createFileData struct {
	Room     string `json:"room"`
	Path     string `json:"path"`
	FileName string `json:"fileName"`
}

type createFolderData struct {
	Room       string `json:"room"`
	Path       string `json:"path"`
	FolderName string `json:"folderName"`
}

type deleteItemData struct {
	Room     string `json:"room"`
	ItemPath string `json:"itemPath"`
}

type commitMilestoneData struct {
	Room          string `json:"room"`
	WalletAddress string `json:"walletAddress"`
}

type taskMasterData struct {
	Room     string `json:"room"`
	Question string `json:"question"`
}

type contentDelta struct {
	FilePath   string `json:"filePath"`
	NewContent string `json:"newContent"`
}

type milestoneCommitted struct {
	User          string `json:"user"`
	Hash          string `json:"hash"`
	TransactionID string `json:"transactionId"`
}

type errorMessage struct {
	Message string `json:"message"`
}

// encodeFrame builds an outbound frame. The payload is marshalled once
// so a broadcast shares a single encoding across all recipients.
func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// decodeRoomKey accepts the join-room payload, which clients send either
// as a bare string or as {"room": ...}.
func decodeRoomKey(data json.RawMessage) (string, error) {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		return key, nil
	}
	var wrapped struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return "", fmt.Errorf("malformed join-room payload")
	}
	return wrapped.Room, nil
}
