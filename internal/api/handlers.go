package api

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/juliacode/collab-server/internal/agent"
	"github.com/juliacode/collab-server/internal/logging"
	"github.com/juliacode/collab-server/internal/metrics"
	"github.com/juliacode/collab-server/internal/project"
	"github.com/juliacode/collab-server/internal/room"
)

// ─── Join ───────────────────────────────────────────────────────────────────

func (s *Server) handleJoin(c *client, data json.RawMessage) {
	key, err := decodeRoomKey(data)
	if err != nil || key == "" {
		s.sendError(c, EventOperationError, EventJoinRoom, "join-room requires a room key")
		return
	}

	rm := s.registry.GetOrCreate(key)
	s.broadcaster.Join(key, c.sub)
	logging.Info("client joined room",
		zap.String("client", c.id),
		zap.String("room", key))

	// Snapshot goes to the joining client only, never broadcast.
	frame, err := s.snapshotFrame(rm)
	if err != nil {
		logging.Error("snapshot encode failed", zap.String("room", key), zap.Error(err))
		return
	}
	c.sub.Send(frame)
}

// snapshotFrame encodes a full-tree project-state-update frame.
func (s *Server) snapshotFrame(rm *room.Room) ([]byte, error) {
	var snapshot []byte
	var err error
	rm.View(func(t *project.Tree) {
		snapshot, err = json.Marshal(t.Snapshot())
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: EventProjectStateUpdate, Data: snapshot})
}

// ─── Content edits ──────────────────────────────────────────────────────────

func (s *Server) handleFileUpdate(c *client, data json.RawMessage) {
	var d fileUpdateData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventFileContentUpdate, "malformed file-content-update payload")
		return
	}

	rm, ok := s.registry.Get(d.Room)
	if !ok {
		s.sendError(c, EventOperationError, EventFileContentUpdate, "room not found: "+d.Room)
		return
	}

	// Last write wins: whichever update acquires the room lock last
	// overwrites prior content, with no conflict detection. The delta is
	// broadcast inside the lock so frame order on the wire always
	// matches mutation order; emitting it after Update returns would let
	// a stale delta overtake a newer one under concurrent editors. The
	// sender already has the new content, so only the other members get
	// the delta.
	err := rm.Update(func(t *project.Tree) error {
		if err := t.UpdateFile(d.FilePath, d.NewContent); err != nil {
			return err
		}
		frame, err := encodeFrame(EventFileContentUpdate, contentDelta{
			FilePath:   d.FilePath,
			NewContent: d.NewContent,
		})
		if err != nil {
			logging.Error("delta encode failed", zap.Error(err))
			return nil
		}
		s.broadcaster.BroadcastExcept(d.Room, c.sub, EventFileContentUpdate, frame)
		return nil
	})
	if err != nil {
		s.sendError(c, EventOperationError, EventFileContentUpdate,
			fmt.Sprintf("cannot update file %q: %v", d.FilePath, err))
		return
	}

	go s.analyze(c, d, rm.Revision())
}

// analyze requests code analysis and relays the feedback to the editing
// client. Runs off the read goroutine; edits may interleave while the
// call is pending, and the response is relayed without re-checking the
// file (the revision is recorded for the logs only).
func (s *Server) analyze(c *client, d fileUpdateData, revision uint64) {
	result, err := s.gateway.Invoke(context.Background(), agent.CapabilityAnalyze, map[string]any{
		"filePath": d.FilePath,
		"code":     d.NewContent,
	})
	if err != nil {
		// Analysis is advisory; a failed call is logged by the gateway
		// and the editor simply gets no feedback.
		return
	}

	frame, err := encodeFrame(EventAgentFeedback, result)
	if err != nil {
		return
	}
	c.sub.Send(frame)
	logging.Debug("agent feedback delivered",
		zap.String("client", c.id),
		zap.String("file", d.FilePath),
		zap.Uint64("revision", revision))
}

// ─── Structural edits ───────────────────────────────────────────────────────

func (s *Server) handleCreateFile(c *client, data json.RawMessage) {
	var d createFileData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventCreateFile, "malformed create-file payload")
		return
	}
	s.applyStructural(c, EventCreateFile, d.Room,
		fmt.Sprintf("cannot create file %q in path %q", d.FileName, d.Path),
		func(t *project.Tree) error { return t.CreateFile(d.Path, d.FileName) })
}

func (s *Server) handleCreateFolder(c *client, data json.RawMessage) {
	var d createFolderData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventCreateFolder, "malformed create-folder payload")
		return
	}
	s.applyStructural(c, EventCreateFolder, d.Room,
		fmt.Sprintf("cannot create folder %q in path %q", d.FolderName, d.Path),
		func(t *project.Tree) error { return t.CreateFolder(d.Path, d.FolderName) })
}

func (s *Server) handleDeleteItem(c *client, data json.RawMessage) {
	var d deleteItemData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventDeleteItem, "malformed delete-item payload")
		return
	}
	s.applyStructural(c, EventDeleteItem, d.Room,
		fmt.Sprintf("cannot delete item at path %q", d.ItemPath),
		func(t *project.Tree) error { return t.Delete(d.ItemPath) })
}

// applyStructural applies a tree mutation and, on success, pushes the
// full snapshot to every member, the sender included. Structural changes
// always refresh the whole tree; only content edits travel as deltas.
func (s *Server) applyStructural(c *client, event, roomKey, failMsg string, op func(*project.Tree) error) {
	rm, ok := s.registry.Get(roomKey)
	if !ok {
		s.sendError(c, EventOperationError, event, "room not found: "+roomKey)
		return
	}

	if err := rm.Update(op); err != nil {
		s.sendError(c, EventOperationError, event, fmt.Sprintf("%s: %v", failMsg, err))
		return
	}

	frame, err := s.snapshotFrame(rm)
	if err != nil {
		logging.Error("snapshot encode failed", zap.String("room", roomKey), zap.Error(err))
		return
	}
	s.broadcaster.Broadcast(roomKey, EventProjectStateUpdate, frame)
}

// ─── Commit ─────────────────────────────────────────────────────────────────

func (s *Server) handleCommitMilestone(c *client, data json.RawMessage) {
	var d commitMilestoneData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventCommitMilestone, "malformed commit-milestone payload")
		return
	}

	rm, ok := s.registry.Get(d.Room)
	if !ok {
		s.sendError(c, EventOperationError, EventCommitMilestone, "room not found: "+d.Room)
		return
	}

	// The hash is taken under the room lock, so it fingerprints a
	// consistent tree even while edits race in.
	var hash string
	rm.View(func(t *project.Tree) {
		hash = project.Hash(t.Root())
	})
	logging.Info("committing project hash",
		zap.String("room", d.Room),
		zap.String("hash", hash))

	go s.anchor(c, d, hash)
}

// anchor asks the agent service to record the hash on the ledger and
// announces the result to the whole room.
func (s *Server) anchor(c *client, d commitMilestoneData, hash string) {
	result, err := s.gateway.Invoke(context.Background(), agent.CapabilityAnchor, map[string]any{
		"walletAddress": d.WalletAddress,
		"codeHash":      hash,
	})
	if err != nil {
		metrics.RecordCommit(false)
		s.sendError(c, EventCommitError, EventCommitMilestone, err.Error())
		return
	}
	metrics.RecordCommit(true)

	txID, _ := result["transactionId"].(string)
	frame, err := encodeFrame(EventMilestoneCommitted, milestoneCommitted{
		User:          d.WalletAddress,
		Hash:          hash,
		TransactionID: txID,
	})
	if err != nil {
		return
	}
	s.broadcaster.Broadcast(d.Room, EventMilestoneCommitted, frame)
	logging.Info("milestone committed",
		zap.String("room", d.Room),
		zap.String("tx", txID))
}

// ─── Task master ────────────────────────────────────────────────────────────

func (s *Server) handleTaskMaster(c *client, data json.RawMessage) {
	var d taskMasterData
	if err := json.Unmarshal(data, &d); err != nil {
		s.sendError(c, EventOperationError, EventInvokeTaskMaster, "malformed invoke-task-master payload")
		return
	}

	go func() {
		result, err := s.gateway.Invoke(context.Background(), agent.CapabilityAsk, map[string]any{
			"question": d.Question,
		})
		if err != nil {
			// The asking client gets no response on failure; the gateway
			// already logged the error.
			return
		}
		frame, err := encodeFrame(EventTaskMasterResponse, result)
		if err != nil {
			return
		}
		c.sub.Send(frame)
	}()
}
