package app

import (
	"gorm.io/gorm"

	"github.com/findmeajob/findmeajob-backend/internal/data/repos/agents"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/chat"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/jobs"
	"github.com/findmeajob/findmeajob-backend/internal/data/repos/research"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

type Repos struct {
	Agent        agents.AgentRepo
	Conversation chat.ConversationRepo
	Message      chat.MessageRepo
	Job          jobs.BackgroundJobRepo
	Note         research.NoteRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Agent:        agents.NewAgentRepo(db, log),
		Conversation: chat.NewConversationRepo(db, log),
		Message:      chat.NewMessageRepo(db, log),
		Job:          jobs.NewBackgroundJobRepo(db, log),
		Note:         research.NewNoteRepo(db, log),
	}
}
