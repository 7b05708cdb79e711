package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/models"
	contentsrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/contents"
	foldersrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/folders"
	refreshtokensrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/refreshtokens"
	tagsrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/tags"
	usersrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/users"
	verificationtokensrepo "github.com/vkarpins/stashkeeper/internal/server/repositories/verificationtokens"
)

// --- shared helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- fake repositories ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	markVerifiedErr error
	markVerifiedID  string

	updatePasswordErr error
	updatedHash       string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *u
	out.ID = "u-new"
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) MarkVerified(ctx context.Context, id string) error {
	f.markVerifiedID = id
	return f.markVerifiedErr
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	f.updatedHash = hash
	return f.updatePasswordErr
}

type fakeRefreshRepo struct {
	createErr    error
	createdToken string
	createdUser  string

	findOut *models.RefreshToken
	findErr error

	consumeErr error
	consumed   []string

	blacklistAllErr    error
	blacklistedUser    string
	deleteExpiredN     int64
	deleteExpiredErr   error
	deleteExpiredCalls int
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	f.createdUser, f.createdToken = userID, token
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Consume(ctx context.Context, token string) error {
	f.consumed = append(f.consumed, token)
	return f.consumeErr
}

func (f *fakeRefreshRepo) BlacklistAllForUser(ctx context.Context, userID string) error {
	f.blacklistedUser = userID
	return f.blacklistAllErr
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.deleteExpiredCalls++
	return f.deleteExpiredN, f.deleteExpiredErr
}

type fakeVerificationRepo struct {
	createErr error
	created   *models.VerificationToken

	findOut *models.VerificationToken
	findErr error

	findByTokenOut *models.VerificationToken
	findByTokenErr error

	deleteErr error
	deleted   []string

	deleteExpiredN     int64
	deleteExpiredErr   error
	deleteExpiredCalls int
}

func (f *fakeVerificationRepo) Create(ctx context.Context, vt *models.VerificationToken) error {
	f.created = vt
	return f.createErr
}

func (f *fakeVerificationRepo) Find(ctx context.Context, purpose models.TokenPurpose, tokenOrOTP string) (*models.VerificationToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeVerificationRepo) FindByToken(ctx context.Context, purpose models.TokenPurpose, token string) (*models.VerificationToken, error) {
	if f.findByTokenErr != nil {
		return nil, f.findByTokenErr
	}
	return f.findByTokenOut, nil
}

func (f *fakeVerificationRepo) Delete(ctx context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return f.deleteErr
}

func (f *fakeVerificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.deleteExpiredCalls++
	return f.deleteExpiredN, f.deleteExpiredErr
}

type fakeFoldersRepo struct {
	createOut *models.Folder
	createErr error

	byID map[string]*models.Folder

	listRootsOut    []*models.Folder
	listChildrenOut []*models.Folder
	listAllOut      []*models.Folder
	listErr         error

	updateErr error
	updated   *models.Folder

	deleteErr error
	deletedID string

	countsOut *models.FolderCounts
	countsErr error
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *folder
	out.ID = "f-new"
	return &out, nil
}

func (f *fakeFoldersRepo) GetByID(ctx context.Context, userID, id string) (*models.Folder, error) {
	if folder, ok := f.byID[id]; ok {
		return folder, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFoldersRepo) ListRoots(ctx context.Context, userID string) ([]*models.Folder, error) {
	return f.listRootsOut, f.listErr
}

func (f *fakeFoldersRepo) ListChildren(ctx context.Context, userID, parentID string) ([]*models.Folder, error) {
	return f.listChildrenOut, f.listErr
}

func (f *fakeFoldersRepo) ListAll(ctx context.Context, userID string) ([]*models.Folder, error) {
	return f.listAllOut, f.listErr
}

func (f *fakeFoldersRepo) Update(ctx context.Context, folder *models.Folder) error {
	f.updated = folder
	return f.updateErr
}

func (f *fakeFoldersRepo) Delete(ctx context.Context, userID, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeFoldersRepo) Counts(ctx context.Context, userID, id string) (*models.FolderCounts, error) {
	return f.countsOut, f.countsErr
}

type fakeContentsRepo struct {
	createOut *models.Content
	createErr error

	getOut *models.Content
	getErr error

	updateErr error
	updated   *models.Content

	deleteErr error

	upsertTextBody string
	upsertTextErr  error
	upsertLinkURL  string
	upsertLinkErr  error
	upsertFileMeta *models.FileMeta
	upsertFileErr  error

	favoriteSet bool
	favoriteErr error

	incCount int
	incErr   error

	listOut []*models.Content
	listErr error

	searchTerm string
	searchMode contentsrepo.SearchMode
	searchOut  []*models.Content
	searchErr  error

	replacedTagIDs []string
	replaceErr     error
}

func (f *fakeContentsRepo) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *c
	out.ID = "c-new"
	return &out, nil
}

func (f *fakeContentsRepo) GetByID(ctx context.Context, userID, id string) (*models.Content, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeContentsRepo) Update(ctx context.Context, c *models.Content) error {
	f.updated = c
	return f.updateErr
}

func (f *fakeContentsRepo) Delete(ctx context.Context, userID, id string) error {
	return f.deleteErr
}

func (f *fakeContentsRepo) UpsertText(ctx context.Context, contentID, body string) error {
	f.upsertTextBody = body
	return f.upsertTextErr
}

func (f *fakeContentsRepo) UpsertLink(ctx context.Context, contentID, url string) error {
	f.upsertLinkURL = url
	return f.upsertLinkErr
}

func (f *fakeContentsRepo) UpsertFile(ctx context.Context, contentID string, meta *models.FileMeta) error {
	f.upsertFileMeta = meta
	return f.upsertFileErr
}

func (f *fakeContentsRepo) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	f.favoriteSet = favorite
	return f.favoriteErr
}

func (f *fakeContentsRepo) IncrementViews(ctx context.Context, userID, id string) error {
	f.incCount++
	return f.incErr
}

func (f *fakeContentsRepo) ListByFolder(ctx context.Context, userID, folderID string, page contentsrepo.Page) ([]*models.Content, error) {
	return f.listOut, f.listErr
}

func (f *fakeContentsRepo) ListRecent(ctx context.Context, userID string, page contentsrepo.Page) ([]*models.Content, error) {
	return f.listOut, f.listErr
}

func (f *fakeContentsRepo) MostViewed(ctx context.Context, userID string, limit int) ([]*models.Content, error) {
	return f.listOut, f.listErr
}

func (f *fakeContentsRepo) ListByTag(ctx context.Context, userID, tagID string, page contentsrepo.Page) ([]*models.Content, error) {
	return f.listOut, f.listErr
}

func (f *fakeContentsRepo) Search(ctx context.Context, userID, term string, mode contentsrepo.SearchMode, page contentsrepo.Page) ([]*models.Content, error) {
	f.searchTerm, f.searchMode = term, mode
	return f.searchOut, f.searchErr
}

func (f *fakeContentsRepo) ReplaceTags(ctx context.Context, contentID string, tagIDs []string) error {
	f.replacedTagIDs = tagIDs
	return f.replaceErr
}

type fakeTagsRepo struct {
	createOut *models.Tag
	createErr error

	getOut *models.Tag
	getErr error

	listOut []*models.Tag
	listErr error

	updateErr error
	updated   *models.Tag

	deleteErr error

	resolvedNames []string
	resolveOut    []*models.Tag
	resolveErr    error

	resolvedIDs     []string
	resolveByIDsOut []*models.Tag
	resolveByIDsErr error

	forContentOut []*models.Tag
	forContentErr error
}

func (f *fakeTagsRepo) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	out := *tag
	out.ID = "t-new"
	return &out, nil
}

func (f *fakeTagsRepo) GetByID(ctx context.Context, userID, id string) (*models.Tag, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeTagsRepo) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	return f.listOut, f.listErr
}

func (f *fakeTagsRepo) Update(ctx context.Context, tag *models.Tag) error {
	f.updated = tag
	return f.updateErr
}

func (f *fakeTagsRepo) Delete(ctx context.Context, userID, id string) error {
	return f.deleteErr
}

func (f *fakeTagsRepo) ResolveByNames(ctx context.Context, userID string, names []string) ([]*models.Tag, error) {
	f.resolvedNames = names
	return f.resolveOut, f.resolveErr
}

func (f *fakeTagsRepo) ResolveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Tag, error) {
	f.resolvedIDs = ids
	return f.resolveByIDsOut, f.resolveByIDsErr
}

func (f *fakeTagsRepo) ListForContent(ctx context.Context, contentID string) ([]*models.Tag, error) {
	return f.forContentOut, f.forContentErr
}

// --- fake repository manager ---

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	v  *fakeVerificationRepo
	f  *fakeFoldersRepo
	c  *fakeContentsRepo
	tg *fakeTagsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) VerificationTokens(dbx.DBTX) verificationtokensrepo.Repository {
	return m.v
}
func (m *fakeRepoManager) Folders(dbx.DBTX) foldersrepo.Repository   { return m.f }
func (m *fakeRepoManager) Contents(dbx.DBTX) contentsrepo.Repository { return m.c }
func (m *fakeRepoManager) Tags(dbx.DBTX) tagsrepo.Repository         { return m.tg }

// --- fake collaborators ---

type fakeMailer struct {
	verifyTo    string
	verifyToken string
	verifyOTP   string
	resetTo     string
	resetToken  string
	sendErr     error
}

func (f *fakeMailer) SendVerificationEmail(ctx context.Context, toEmail, token, otp string) error {
	f.verifyTo, f.verifyToken, f.verifyOTP = toEmail, token, otp
	return f.sendErr
}

func (f *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	f.resetTo, f.resetToken = toEmail, token
	return f.sendErr
}

type fakeBlobStore struct {
	uploadKey   string
	uploadURL   string
	uploadErr   error
	downloadURL string
	downloadErr error
	downloaded  string
}

func (f *fakeBlobStore) PresignUpload(ctx context.Context) (string, string, error) {
	return f.uploadKey, f.uploadURL, f.uploadErr
}

func (f *fakeBlobStore) PresignDownload(ctx context.Context, key string) (string, error) {
	f.downloaded = key
	return f.downloadURL, f.downloadErr
}
