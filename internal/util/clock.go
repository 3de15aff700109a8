package util

import "time"

// Now devolve o horário atual em UTC. Centralizado para manter timestamps
// consistentes entre serviços.
func Now() time.Time {
	return time.Now().UTC()
}
