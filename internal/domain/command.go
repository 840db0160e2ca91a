package domain

// CommandKind перечисляет все типы управляющих сообщений для плагина.
type CommandKind string

const (
	CmdStatusRequested CommandKind = "status_requested" // первый зритель открыл страницу статуса
	CmdStatusStopped   CommandKind = "status_stopped"   // последний зритель ушел
	CmdCronRun         CommandKind = "cron_run"
	CmdCronEnable      CommandKind = "cron_enable"
	CmdCronDisable     CommandKind = "cron_disable"
	CmdSessionKill     CommandKind = "session_kill"
)

// CommandMessage — тегированный union. Один конструктор на каждый вид команды,
// чтобы продюсеры и потребитель (плагин) сходились по форме на этапе компиляции,
// а не на runtime-мапах.
//
// Доставка fire-and-forget: никаких подтверждений, ретраев или гарантий
// сверх того, что дает брокер.
type CommandMessage struct {
	Kind       CommandKind `json:"kind"`
	JobID      string      `json:"job_id,omitempty"`      // cron_run / cron_enable / cron_disable
	SessionKey string      `json:"session_key,omitempty"` // session_kill
}

func NewStatusRequestedCommand() CommandMessage {
	return CommandMessage{Kind: CmdStatusRequested}
}

func NewStatusStoppedCommand() CommandMessage {
	return CommandMessage{Kind: CmdStatusStopped}
}

func NewCronRunCommand(jobID string) CommandMessage {
	return CommandMessage{Kind: CmdCronRun, JobID: jobID}
}

func NewCronEnableCommand(jobID string) CommandMessage {
	return CommandMessage{Kind: CmdCronEnable, JobID: jobID}
}

func NewCronDisableCommand(jobID string) CommandMessage {
	return CommandMessage{Kind: CmdCronDisable, JobID: jobID}
}

func NewSessionKillCommand(sessionKey string) CommandMessage {
	return CommandMessage{Kind: CmdSessionKill, SessionKey: sessionKey}
}
