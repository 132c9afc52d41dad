package domain

import (
	"time"
)

// Enrollment é o registro durável de que um usuário destravou um curso.
// Invariante central do sistema: existe NO MÁXIMO uma matrícula por par
// (user_id, course_id) — garantida pelo índice único no banco, nunca por
// lock de aplicação. A linha é criada exatamente uma vez pela
// reconciliação de compra; nunca é atualizada nem removida (não há
// fluxo de reembolso/revogação).
type Enrollment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  int64     `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision é o resultado da decisão de acesso para um (usuário, curso, aula).
type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionDeny  Decision = "DENY"
)

// Allowed indica se a decisão libera a reprodução.
func (d Decision) Allowed() bool { return d == DecisionAllow }
