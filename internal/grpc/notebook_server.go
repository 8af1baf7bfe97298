package grpcserver

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"notebookService/internal/apperr"
	"notebookService/internal/service"
)

// Server implements NotebookServiceServer over the services. Cached entities
// are decoded straight from their stored JSON.
type Server struct {
	svc *service.Services
}

func (s *Server) GetNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "id")
	if err != nil {
		return nil, err
	}
	raw, err := s.svc.Notes.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return objectStruct(raw)
}

func (s *Server) ListNotes(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	raw, err := s.svc.Notes.ListMine(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return itemsStruct(raw)
}

func (s *Server) ListSections(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	noteID, err := requiredField(req, "note_id")
	if err != nil {
		return nil, err
	}
	raw, err := s.svc.Sections.List(ctx, noteID)
	if err != nil {
		return nil, toStatus(err)
	}
	return itemsStruct(raw)
}

func (s *Server) ListPages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sectionID, err := requiredField(req, "section_id")
	if err != nil {
		return nil, err
	}
	raw, err := s.svc.Pages.List(ctx, sectionID)
	if err != nil {
		return nil, toStatus(err)
	}
	return itemsStruct(raw)
}

func (s *Server) GetPage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "id")
	if err != nil {
		return nil, err
	}
	p, err := s.svc.Pages.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode page: %v", err)
	}
	return objectStruct(raw)
}

func requiredField(req *structpb.Struct, name string) (string, error) {
	v := strings.TrimSpace(req.GetFields()[name].GetStringValue())
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v, nil
}

func toStatus(err error) error {
	return status.Error(apperr.GRPCCode(err), apperr.Message(err))
}

func objectStruct(raw []byte) (*structpb.Struct, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "decode entity: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "convert entity: %v", err)
	}
	return out, nil
}

func itemsStruct(raw []byte) (*structpb.Struct, error) {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, status.Errorf(codes.Internal, "decode list: %v", err)
	}
	if items == nil {
		items = []any{}
	}
	out, err := structpb.NewStruct(map[string]any{"items": items})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "convert list: %v", err)
	}
	return out, nil
}
