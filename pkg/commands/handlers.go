package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/pkg/files"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/grovetools/scribe/pkg/settings"
	"github.com/grovetools/scribe/state"
)

// Command names.
const (
	CmdGetSettings          = "get_settings"
	CmdSaveSettings         = "save_settings"
	CmdResetSettings        = "reset_settings"
	CmdValidateSettings     = "validate_settings"
	CmdGetWorkspaceState    = "get_workspace_state"
	CmdSaveWorkspaceState   = "save_workspace_state"
	CmdGetCurrentFolderPath = "get_current_folder_path"
	CmdSetCurrentFolderPath = "set_current_folder_path"
	CmdGetCurrentFilePath   = "get_current_file_path"
	CmdSetCurrentFilePath   = "set_current_file_path"
	CmdGetRecentFiles       = "get_recent_files"
	CmdAddRecentFile        = "add_recent_file"
	CmdRemoveRecentFile     = "remove_recent_file"
	CmdClearRecentFiles     = "clear_recent_files"
	CmdOpenFolder           = "open_folder"
	CmdListDirectoryTree    = "list_directory_tree"
	CmdSaveImage            = "save_image"
	CmdSaveS3Config         = "save_s3_config"
	CmdLoadS3Config         = "load_s3_config"
	CmdDeleteS3Config       = "delete_s3_config"
	CmdUploadImageToS3      = "upload_image_to_s3"
)

// NewWithServices builds a registry with every command bound to svc.
func NewWithServices(svc *Services) *Registry {
	r := NewRegistry()
	h := &handlers{svc: svc}

	settingsStores := []string{state.SettingsStore}
	workspaceStores := []string{state.WorkspaceStore}
	s3Stores := []string{state.S3ConfigStore}

	for _, cmd := range []Command{
		{Name: CmdGetSettings, Description: "Return every stored setting", Handler: h.getSettings},
		{Name: CmdSaveSettings, Description: "Merge settings into the store", Args: []string{"settings"}, Stores: settingsStores, Handler: h.saveSettings},
		{Name: CmdResetSettings, Description: "Remove every stored setting", Stores: settingsStores, Handler: h.resetSettings},
		{Name: CmdValidateSettings, Description: "Check settings against the settings schema", Args: []string{"settings"}, Handler: h.validateSettings},
		{Name: CmdGetWorkspaceState, Description: "Return the whole workspace record", Handler: h.getWorkspaceState},
		{Name: CmdSaveWorkspaceState, Description: "Replace the whole workspace record", Args: []string{"state"}, Stores: workspaceStores, Handler: h.saveWorkspaceState},
		{Name: CmdGetCurrentFolderPath, Description: "Return the open folder", Handler: h.getCurrentFolderPath},
		{Name: CmdSetCurrentFolderPath, Description: "Persist the open folder", Args: []string{"path"}, Stores: workspaceStores, Handler: h.setCurrentFolderPath},
		{Name: CmdGetCurrentFilePath, Description: "Return the selected file", Handler: h.getCurrentFilePath},
		{Name: CmdSetCurrentFilePath, Description: "Persist the selected file", Args: []string{"path"}, Stores: workspaceStores, Handler: h.setCurrentFilePath},
		{Name: CmdGetRecentFiles, Description: "Return the recent files, most recent first", Handler: h.getRecentFiles},
		{Name: CmdAddRecentFile, Description: "Move a file to the front of the recent files", Args: []string{"file"}, Stores: workspaceStores, Handler: h.addRecentFile},
		{Name: CmdRemoveRecentFile, Description: "Drop a file from the recent files", Args: []string{"path"}, Stores: workspaceStores, Handler: h.removeRecentFile},
		{Name: CmdClearRecentFiles, Description: "Empty the recent files", Stores: workspaceStores, Handler: h.clearRecentFiles},
		{Name: CmdOpenFolder, Description: "Choose a folder and return its tree", Args: []string{"path?"}, Handler: h.openFolder},
		{Name: CmdListDirectoryTree, Description: "Return the tree of a folder", Args: []string{"rootPath"}, Handler: h.listDirectoryTree},
		{Name: CmdSaveImage, Description: "Save a base64 image under the folder's assets directory", Args: []string{"base64Data", "folderPath"}, Handler: h.saveImage},
		{Name: CmdSaveS3Config, Description: "Store the S3 configuration", Args: []string{"config"}, Stores: s3Stores, Handler: h.saveS3Config},
		{Name: CmdLoadS3Config, Description: "Return the S3 configuration, or null", Handler: h.loadS3Config},
		{Name: CmdDeleteS3Config, Description: "Remove the S3 configuration", Stores: s3Stores, Handler: h.deleteS3Config},
		{Name: CmdUploadImageToS3, Description: "Upload a file to the configured bucket and return its URL", Args: []string{"fileName", "fileData"}, Handler: h.uploadImageToS3},
	} {
		r.Register(cmd)
	}
	return r
}

type handlers struct {
	svc *Services
}

// Settings

type settingsArgs struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

func (h *handlers) getSettings(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.Settings.All()
}

func (h *handlers) saveSettings(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a settingsArgs
	if err := decodeArgs(CmdSaveSettings, args, &a); err != nil {
		return nil, err
	}
	if a.Settings == nil {
		return nil, missingArg(CmdSaveSettings, "settings")
	}
	return nil, h.svc.Settings.Merge(a.Settings)
}

func (h *handlers) resetSettings(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return nil, h.svc.Settings.Reset()
}

func (h *handlers) validateSettings(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a settingsArgs
	if err := decodeArgs(CmdValidateSettings, args, &a); err != nil {
		return nil, err
	}
	if a.Settings == nil {
		return nil, missingArg(CmdValidateSettings, "settings")
	}
	return nil, settings.Validate(a.Settings)
}

// Workspace

type workspaceStateArgs struct {
	State *models.WorkspaceData `json:"state"`
}

type pathArgs struct {
	Path *string `json:"path"`
}

type recentFileArgs struct {
	File *models.RecentFile `json:"file"`
}

func (h *handlers) getWorkspaceState(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.Workspace.State()
}

func (h *handlers) saveWorkspaceState(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a workspaceStateArgs
	if err := decodeArgs(CmdSaveWorkspaceState, args, &a); err != nil {
		return nil, err
	}
	if a.State == nil {
		return nil, missingArg(CmdSaveWorkspaceState, "state")
	}
	return nil, h.svc.Workspace.SaveState(*a.State)
}

func (h *handlers) getCurrentFolderPath(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.Workspace.FolderPath()
}

func (h *handlers) setCurrentFolderPath(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := requirePath(CmdSetCurrentFolderPath, args)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Workspace.SetFolderPath(path)
}

func (h *handlers) getCurrentFilePath(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.Workspace.FilePath()
}

func (h *handlers) setCurrentFilePath(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := requirePath(CmdSetCurrentFilePath, args)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Workspace.SetFilePath(path)
}

func (h *handlers) getRecentFiles(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.Workspace.RecentFiles(), nil
}

func (h *handlers) addRecentFile(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a recentFileArgs
	if err := decodeArgs(CmdAddRecentFile, args, &a); err != nil {
		return nil, err
	}
	if a.File == nil {
		return nil, missingArg(CmdAddRecentFile, "file")
	}
	return nil, h.svc.Workspace.AddRecentFile(*a.File)
}

func (h *handlers) removeRecentFile(ctx context.Context, args json.RawMessage) (interface{}, error) {
	path, err := requirePath(CmdRemoveRecentFile, args)
	if err != nil {
		return nil, err
	}
	return nil, h.svc.Workspace.RemoveRecentFile(path)
}

func (h *handlers) clearRecentFiles(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return nil, h.svc.Workspace.ClearRecentFiles()
}

func requirePath(command string, args json.RawMessage) (string, error) {
	var a pathArgs
	if err := decodeArgs(command, args, &a); err != nil {
		return "", err
	}
	if a.Path == nil {
		return "", missingArg(command, "path")
	}
	return *a.Path, nil
}

// Files

type rootPathArgs struct {
	RootPath string `json:"rootPath"`
}

type saveImageArgs struct {
	Base64Data *string `json:"base64Data"`
	FolderPath *string `json:"folderPath"`
}

func (h *handlers) openFolder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(CmdOpenFolder, args, &a); err != nil {
		return nil, err
	}

	var root string
	if a.Path != nil && strings.TrimSpace(*a.Path) != "" {
		root = *a.Path
	} else {
		picked, ok, err := h.svc.Picker.PickFolder(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.UserCancelled("no folder selected")
		}
		root = picked
	}

	tree, err := files.ListTree(root, h.svc.Tree)
	if err != nil {
		return nil, err
	}
	return models.OpenFolderResult{RootPath: tree.Root.Path, Tree: tree.Root}, nil
}

func (h *handlers) listDirectoryTree(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a rootPathArgs
	if err := decodeArgs(CmdListDirectoryTree, args, &a); err != nil {
		return nil, err
	}
	if a.RootPath == "" {
		return nil, missingArg(CmdListDirectoryTree, "rootPath")
	}
	tree, err := files.ListTree(a.RootPath, h.svc.Tree)
	if err != nil {
		return nil, err
	}
	return tree.Root, nil
}

func (h *handlers) saveImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a saveImageArgs
	if err := decodeArgs(CmdSaveImage, args, &a); err != nil {
		return nil, err
	}
	if a.Base64Data == nil {
		return nil, missingArg(CmdSaveImage, "base64Data")
	}
	if a.FolderPath == nil {
		return nil, missingArg(CmdSaveImage, "folderPath")
	}
	return h.svc.Images.Save(*a.Base64Data, *a.FolderPath)
}

// Upload

type s3ConfigArgs struct {
	Config *models.S3Config `json:"config"`
}

type uploadArgs struct {
	FileName string    `json:"fileName"`
	FileData ByteSlice `json:"fileData"`
}

func (h *handlers) saveS3Config(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a s3ConfigArgs
	if err := decodeArgs(CmdSaveS3Config, args, &a); err != nil {
		return nil, err
	}
	if a.Config == nil {
		return nil, missingArg(CmdSaveS3Config, "config")
	}
	return nil, h.svc.S3Configs.Save(*a.Config)
}

func (h *handlers) loadS3Config(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.svc.S3Configs.Load()
}

func (h *handlers) deleteS3Config(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return nil, h.svc.S3Configs.Delete()
}

func (h *handlers) uploadImageToS3(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a uploadArgs
	if err := decodeArgs(CmdUploadImageToS3, args, &a); err != nil {
		return nil, err
	}
	if a.FileName == "" {
		return nil, missingArg(CmdUploadImageToS3, "fileName")
	}
	return h.svc.Uploader.Upload(ctx, a.FileName, a.FileData)
}
