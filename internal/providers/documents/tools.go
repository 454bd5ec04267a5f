package documents

import (
	"github.com/GriffinCanCode/docbridge/internal/domain/bridge"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

var (
	uriParam      = types.Parameter{Name: "uri", Type: "string", Description: "Document or tree URI", Required: true}
	dataParam     = types.Parameter{Name: "data", Type: "string", Description: "Base64 encoded content", Required: true}
	mimeTypeParam = types.Parameter{Name: "mimeType", Type: "string", Description: "Content type, guessed from the extension when empty"}
	titleParam    = types.Parameter{Name: "title", Type: "string", Description: "Picker title"}
	folderParam   = types.Parameter{Name: "folder", Type: "string", Description: "Initial folder URI"}
)

func tools() []types.Tool {
	return []types.Tool{
		{
			ID:          ServiceID + "." + bridge.ActionSelectFolder,
			Name:        "Select Folder",
			Description: "Ask the user to pick a folder and keep a persistent grant on it",
			Parameters: []types.Parameter{
				folderParam,
				titleParam,
				{Name: "writable", Type: "boolean", Description: "Request write access (default true)"},
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionSelectFile,
			Name:        "Select File",
			Description: "Ask the user to pick an existing file",
			Parameters: []types.Parameter{
				folderParam,
				titleParam,
				{Name: "mimeTypes", Type: "array", Description: "Accepted content types, any when empty"},
				{Name: "writable", Type: "boolean", Description: "Request write access (default true)"},
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionOpenFolder,
			Name:        "Open Folder",
			Description: "Show a folder in the host's file viewer",
			Parameters:  []types.Parameter{uriParam, titleParam},
			Returns:     "null",
		},
		{
			ID:          ServiceID + "." + bridge.ActionOpenFile,
			Name:        "Open File",
			Description: "Open a file with the host's default viewer",
			Parameters:  []types.Parameter{uriParam, titleParam},
			Returns:     "null",
		},
		{
			ID:          ServiceID + "." + bridge.ActionReadFile,
			Name:        "Read File",
			Description: "Read a document as base64",
			Parameters:  []types.Parameter{uriParam},
			Returns:     "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionSaveFile,
			Name:        "Save File",
			Description: "Ask the user where to save new content, then write it",
			Parameters: []types.Parameter{
				dataParam,
				folderParam,
				{Name: "filename", Type: "string", Description: "Suggested file name"},
				mimeTypeParam,
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionWriteFile,
			Name:        "Write File",
			Description: "Write content under a tree, creating missing folders; without uri writes shared media",
			Parameters: []types.Parameter{
				{Name: "uri", Type: "string", Description: "Target document or tree URI"},
				dataParam,
				{Name: "path", Type: "string", Description: "Relative path below a tree URI"},
				mimeTypeParam,
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionWriteMedia,
			Name:        "Write Media",
			Description: "Add a file to the shared media collections",
			Parameters: []types.Parameter{
				dataParam,
				{Name: "path", Type: "string", Description: "Relative media path such as Pictures/x.jpg", Required: true},
				mimeTypeParam,
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionOverwriteFile,
			Name:        "Overwrite File",
			Description: "Replace the content of an existing file",
			Parameters:  []types.Parameter{uriParam, dataParam},
			Returns:     "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionDeleteFile,
			Name:        "Delete File",
			Description: "Delete a document, reporting how many were removed",
			Parameters:  []types.Parameter{uriParam},
			Returns:     "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionGetInfo,
			Name:        "File Info",
			Description: "Describe a document, or one located by relative path below a tree",
			Parameters: []types.Parameter{
				uriParam,
				{Name: "path", Type: "string", Description: "Relative path below the tree"},
			},
			Returns: "object",
		},
		{
			ID:          ServiceID + "." + bridge.ActionGetURI,
			Name:        "Resolve URI",
			Description: "Resolve a relative path below a tree to a document URI, null when absent",
			Parameters: []types.Parameter{
				uriParam,
				{Name: "path", Type: "string", Description: "Relative path below the tree", Required: true},
			},
			Returns: "object",
		},
	}
}
