package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaocelulas/igreja/internal/auth"
	"github.com/gestaocelulas/igreja/internal/db"
	"github.com/gestaocelulas/igreja/internal/panel"
	"github.com/gestaocelulas/igreja/internal/rbac"
	"github.com/gestaocelulas/igreja/internal/repo"
	"github.com/gestaocelulas/igreja/internal/tenant"
	"github.com/gestaocelulas/igreja/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrEmailEmUso indica e-mail já cadastrado em conta ativa.
	ErrEmailEmUso = errors.New("email já cadastrado")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrSemVinculo indica usuário sem vínculo ativo com igreja.
	ErrSemVinculo = errors.New("usuário sem vínculo ativo")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	GetMembershipByUsuario(ctx context.Context, usuarioID uuid.UUID) (repo.Membership, error)
	GetMembership(ctx context.Context, usuarioID, igrejaID uuid.UUID) (repo.Membership, error)
	UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error
	SoftDeleteUsuario(ctx context.Context, id uuid.UUID) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra registro, autenticação e sessões.
type AuthService struct {
	repo       authRepository
	register   func(ctx context.Context, fn func(ops registerOps) error) error
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.Queries, pool *pgxpool.Pool, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, register: pgRegister(pool), redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// Profile resume a identidade devolvida em logins.
type Profile struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

// IgrejaInfo resume a igreja devolvida em logins.
type IgrejaInfo struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
	Slug string `json:"slug"`
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	Profile       Profile
	Igreja        IgrejaInfo
	Papel         rbac.Role
}

// RegisterInput reúne os dados do cadastro de uma nova igreja.
type RegisterInput struct {
	IgrejaNome string
	Nome       string
	Email      string
	Senha      string
}

// Validate aplica as regras de campo do cadastro.
func (in RegisterInput) Validate() error {
	if err := util.RequireString(in.IgrejaNome, "nome da igreja"); err != nil {
		return err
	}
	if err := util.RequireString(in.Nome, "nome"); err != nil {
		return err
	}
	if err := util.ValidateEmail(in.Email); err != nil {
		return err
	}
	return util.ValidatePassword(in.Senha)
}

// registerOps é a unidade transacional do cadastro: todos os passos
// gravam na mesma transação e só persistem se o fluxo inteiro suceder.
type registerOps interface {
	AllocateIgreja(ctx context.Context, nome string) (*tenant.Igreja, error)
	InsertUsuario(ctx context.Context, nome, email, senhaHash string) (repo.Usuario, error)
	InsertVinculo(ctx context.Context, usuarioID, igrejaID uuid.UUID, papel string) error
	SeedNomenclatura(ctx context.Context, igrejaID uuid.UUID) error
}

func pgRegister(pool *pgxpool.Pool) func(ctx context.Context, fn func(ops registerOps) error) error {
	return func(ctx context.Context, fn func(ops registerOps) error) error {
		return db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
			return fn(pgRegisterOps{tx: tx})
		})
	}
}

type pgRegisterOps struct {
	tx pgx.Tx
}

// AllocateIgreja percorre os candidatos de slug. Cada tentativa roda num
// savepoint (tenant.InsertTx): a colisão desfaz só o INSERT e a
// transação do cadastro segue utilizável para o próximo candidato.
func (o pgRegisterOps) AllocateIgreja(ctx context.Context, nome string) (*tenant.Igreja, error) {
	var igreja *tenant.Igreja

	allocator := tenant.Allocator{
		Insert: func(ctx context.Context, slug string) error {
			created, err := tenant.InsertTx(ctx, o.tx, nome, slug)
			if err != nil {
				return err
			}
			igreja = created
			return nil
		},
		Conflict: func(err error) bool {
			_, ok := db.UniqueViolation(err)
			return ok
		},
	}

	if _, err := allocator.Allocate(ctx, nome); err != nil {
		return nil, err
	}
	return igreja, nil
}

func (o pgRegisterOps) InsertUsuario(ctx context.Context, nome, email, senhaHash string) (repo.Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, email, senha_hash, ativo)
        VALUES ($1, lower($2), $3, true)
        RETURNING id, nome, email, senha_hash, ativo, criado_em
    `

	var usuario repo.Usuario
	err := o.tx.QueryRow(ctx, query, strings.TrimSpace(nome), strings.TrimSpace(email), senhaHash).
		Scan(&usuario.ID, &usuario.Nome, &usuario.Email, &usuario.SenhaHash, &usuario.Ativo, &usuario.CriadoEm)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return repo.Usuario{}, ErrEmailEmUso
		}
		return repo.Usuario{}, err
	}
	return usuario, nil
}

func (o pgRegisterOps) InsertVinculo(ctx context.Context, usuarioID, igrejaID uuid.UUID, papel string) error {
	const query = `
        INSERT INTO vinculos (usuario_id, igreja_id, papel, ativo)
        VALUES ($1, $2, $3, true)
    `
	_, err := o.tx.Exec(ctx, query, usuarioID, igrejaID, papel)
	return err
}

func (o pgRegisterOps) SeedNomenclatura(ctx context.Context, igrejaID uuid.UUID) error {
	return panel.SeedNomenclatura(ctx, o.tx, igrejaID)
}

// Register cria igreja, conta do responsável, vínculo admin_geral e
// nomenclatura padrão numa única transação: falha em qualquer passo
// desfaz tudo, sem igreja órfã.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	senhaHash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	var (
		igreja  *tenant.Igreja
		usuario repo.Usuario
	)

	err = s.register(ctx, func(ops registerOps) error {
		igreja, err = ops.AllocateIgreja(ctx, input.IgrejaNome)
		if err != nil {
			return err
		}

		usuario, err = ops.InsertUsuario(ctx, input.Nome, input.Email, senhaHash)
		if err != nil {
			return err
		}

		if err := ops.InsertVinculo(ctx, usuario.ID, igreja.ID, string(rbac.RoleAdminGeral)); err != nil {
			return err
		}

		return ops.SeedNomenclatura(ctx, igreja.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("igreja", igreja.Slug).Msg("nova igreja registrada")

	return s.issueSession(ctx, usuario, repo.Membership{
		UsuarioID:  usuario.ID,
		Nome:       usuario.Nome,
		Email:      usuario.Email,
		IgrejaID:   igreja.ID,
		IgrejaNome: igreja.Nome,
		Papel:      string(rbac.RoleAdminGeral),
	}, igreja.Slug)
}

// Login autentica pelo e-mail e senha e emite tokens da igreja vinculada.
func (s *AuthService) Login(ctx context.Context, email, senha string) (*LoginResult, error) {
	usuario, err := s.repo.GetUsuarioByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, usuario.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: falha ao verificar senha")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	membership, err := s.repo.GetMembershipByUsuario(ctx, usuario.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSemVinculo
		}
		return nil, err
	}

	return s.issueSession(ctx, usuario, membership, "")
}

func (s *AuthService) issueSession(ctx context.Context, usuario repo.Usuario, membership repo.Membership, slug string) (*LoginResult, error) {
	papel, err := rbac.Normalize(membership.Papel)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(usuario.ID, membership.IgrejaID, string(papel))
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiry := util.Now().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, refreshHash, usuario.ID, membership.IgrejaID); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		RefreshExpiry: expiry,
		Profile:       Profile{ID: usuario.ID.String(), Nome: membership.Nome, Email: membership.Email},
		Igreja:        IgrejaInfo{ID: membership.IgrejaID.String(), Nome: membership.IgrejaNome, Slug: slug},
		Papel:         papel,
	}, nil
}

type refreshPayload struct {
	UsuarioID uuid.UUID `json:"usuario_id"`
	IgrejaID  uuid.UUID `json:"igreja_id"`
}

func (s *AuthService) persistRefresh(ctx context.Context, hash string, usuarioID, igrejaID uuid.UUID) error {
	payload, err := json.Marshal(refreshPayload{UsuarioID: usuarioID, IgrejaID: igrejaID})
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, auth.RefreshRedisKey(hash), payload, s.refreshTTL).Err()
}

// Refresh rotaciona a sessão: valida o token atual, reconfere o vínculo e
// emite novo par de tokens, invalidando o anterior.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	hash := auth.HashRefreshToken(rawRefresh)
	key := auth.RefreshRedisKey(hash)

	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	var payload refreshPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrRefreshInvalid
	}

	membership, err := s.repo.GetMembership(ctx, payload.UsuarioID, payload.IgrejaID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			_ = s.redis.Del(ctx, key)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	usuario, err := s.repo.GetUsuarioByID(ctx, payload.UsuarioID)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, usuario, membership, "")
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawRefresh))
	return s.redis.Del(ctx, key).Err()
}

// GetMe devolve o perfil do usuário autenticado.
func (s *AuthService) GetMe(ctx context.Context, usuarioID uuid.UUID) (Profile, error) {
	usuario, err := s.repo.GetUsuarioByID(ctx, usuarioID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{ID: usuario.ID.String(), Nome: usuario.Nome, Email: usuario.Email}, nil
}

// UpdateMe altera nome e e-mail da própria conta.
func (s *AuthService) UpdateMe(ctx context.Context, usuarioID uuid.UUID, nome, email string) error {
	if err := util.RequireString(nome, "nome"); err != nil {
		return err
	}
	if err := util.ValidateEmail(email); err != nil {
		return err
	}

	if err := s.repo.UpdateUsuario(ctx, usuarioID, nome, email); err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrEmailEmUso
		}
		return err
	}
	return nil
}

// DeleteMe desativa a própria conta e derruba as sessões ativas dela.
func (s *AuthService) DeleteMe(ctx context.Context, usuarioID uuid.UUID) error {
	return s.repo.SoftDeleteUsuario(ctx, usuarioID)
}
