package domain

import (
	"time"
)

// Course representa um curso do catálogo (a Entidade principal do marketplace).
// O estúdio de conteúdo (admin) cria e edita; o restante do sistema só lê.
type Course struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"` // Agrupamento de vitrine (e.g., "popular", "tech")
	Price        float64   `json:"price"`    // Preço em BRL (reais)
	ThumbnailURL string    `json:"thumbnail_url"`
	IsLocked     bool      `json:"is_locked"` // true = exige matrícula para assistir
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Lesson representa uma aula de um curso, exibida na ordem de Position.
// A trava individual (IsLocked = false) marca a aula como prévia gratuita.
type Lesson struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"video_url"`
	IsLocked    bool      `json:"is_locked"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourseFilter define os parâmetros de busca e paginação do catálogo.
type CourseFilter struct {
	Page     int
	Limit    int
	Category string
}

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas
// sem que o domínio dependa diretamente do pacote "context".
type Context interface{}
