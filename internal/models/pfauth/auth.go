package pfauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/andskur/argon2-hashing"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfstore"
	"github.com/rs/zerolog/log"
)

// Clés des blobs persistés dans le store
const (
	tokenKey  = "admin_token"
	expiryKey = "admin_token_expiry"
)

// Auth garde l'accès admin derrière un couple login/mot de passe et un
// token opaque à durée limitée. Le token présent et non expiré dans le
// store est la seule preuve d'authentification.
type Auth struct {
	store pfstore.Store
	login string
	hash  string
	ttl   time.Duration
	now   func() time.Time
}

func New(store pfstore.Store, user pfconfig.UserConfig, cfg pfconfig.AuthConfig) *Auth {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		store: store,
		login: user.Login,
		hash:  user.Hash,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Login vérifie le couple login/mot de passe. En cas de succès, frappe un
// token et son expiration absolue, les persiste, et retourne le token.
// En cas d'échec rien n'est persisté et ok vaut false.
func (a *Auth) Login(ctx context.Context, username, password string) (token string, ok bool, err error) {
	cmpErr := argon2.CompareHashAndPassword([]byte(a.hash), []byte(password))
	if cmpErr != nil || username != a.login {
		return "", false, nil
	}

	token = mintToken()
	expiry := a.now().Add(a.ttl)

	if err := a.store.Put(ctx, tokenKey, []byte(token)); err != nil {
		return "", false, err
	}
	if err := a.store.Put(ctx, expiryKey, []byte(strconv.FormatInt(expiry.UnixMilli(), 10))); err != nil {
		return "", false, err
	}

	return token, true, nil
}

// Logout efface inconditionnellement token et expiration. Ne peut pas échouer
// du point de vue de l'appelant: les erreurs de store sont loguées.
func (a *Auth) Logout(ctx context.Context) {
	if err := a.store.Delete(ctx, tokenKey); err != nil {
		log.Warn().Err(err).Msg("suppression du token admin impossible")
	}
	if err := a.store.Delete(ctx, expiryKey); err != nil {
		log.Warn().Err(err).Msg("suppression de l'expiration admin impossible")
	}
}

// IsAuthenticated retourne vrai si un token existe et que son expiration
// n'est pas atteinte. Un token expiré est purgé au passage: expiré et
// absent sont indistinguables.
func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	_, ok := a.currentToken(ctx)
	return ok
}

// ValidToken compare un token présenté (cookie de session) au token stocké
func (a *Auth) ValidToken(ctx context.Context, presented string) bool {
	stored, ok := a.currentToken(ctx)
	return ok && presented != "" && presented == stored
}

func (a *Auth) currentToken(ctx context.Context) (string, bool) {
	tokenData, err := a.store.Get(ctx, tokenKey)
	if err != nil {
		if !errors.Is(err, pfstore.ErrNotFound) {
			log.Warn().Err(err).Msg("lecture du token admin impossible")
		}
		return "", false
	}
	expiryData, err := a.store.Get(ctx, expiryKey)
	if err != nil {
		if !errors.Is(err, pfstore.ErrNotFound) {
			log.Warn().Err(err).Msg("lecture de l'expiration admin impossible")
		}
		return "", false
	}

	expiryMillis, err := strconv.ParseInt(string(expiryData), 10, 64)
	if err != nil {
		// Expiration corrompue: traitée comme expirée
		a.Logout(ctx)
		return "", false
	}

	if a.now().UnixMilli() >= expiryMillis {
		// Expiré: purge immédiate
		a.Logout(ctx)
		return "", false
	}

	return string(tokenData), true
}

// mintToken frappe un token opaque aléatoire
func mintToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("génération du token impossible")
	}
	return hex.EncodeToString(buf)
}
