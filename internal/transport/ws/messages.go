package ws

// Control-кадры от клиента. Исходящие кадры (конверт, unread_hint)
// сервер шлёт уже сериализованными байтами.
const (
	CmdJoin  = "join"  // открыть диалог, вылить очередь
	CmdLeave = "leave" // закрыть диалог
)

type ControlFrame struct {
	Cmd  string `json:"cmd"`
	Room string `json:"room"`
}
