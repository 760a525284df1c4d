package server

// Server объединяет HTTP-обработчики отдельных сущностей. Сейчас это только
// приём пакетов магазина реликвий.
type Server struct {
	RelicServer
}

func NewServer(
	relicServer RelicServer,
) Server {
	return Server{
		RelicServer: relicServer,
	}
}
