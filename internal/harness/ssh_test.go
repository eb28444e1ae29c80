// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package harness

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"syscall"
	"testing"

	"golang.org/x/crypto/ssh"
)

// sshFixture configures a local SSH server and client connected over a
// socket pair.  The server answers exec requests from a table of canned
// command outputs.
type sshFixture struct {
	node    *SSHNode
	outputs map[string]string
	status  map[string]uint32
}

// serverPrivateKey is an ed25519 key generated for testing.
const serverPrivateKey = `
b3BlbnNzaC1rZXktdjEAAAAABG5vbmUAAAAEbm9uZQAAAAAAAAABAAAAMwAAAAtzc2gtZW
QyNTUxOQAAACDIRPoqlqQZ77bQhAHmsb7y3z12517NYfPdvmbPjyCArgAAALACbVESAm1R
EgAAAAtzc2gtZWQyNTUxOQAAACDIRPoqlqQZ77bQhAHmsb7y3z12517NYfPdvmbPjyCArg
AAAEA61zv3vNLEr1ExQCdCCxgmHwu1XC9VOAWOwCjBhZA7L8hE+iqWpBnvttCEAeaxvvLf
PXbnXs1h892+Zs+PIICuAAAALGxpdWxrQGxpdWxrLW1hY2Jvb2twcm8zLnJvYW0uY29ycC
5nb29nbGUuY29tAQ==
`

func sshServerKeyPEM() []byte {
	const keyType = "OPENSSH PRIVATE KEY"
	var b bytes.Buffer
	fmt.Fprintf(&b, "-----BEGIN %s-----", keyType)
	b.WriteString(serverPrivateKey)
	fmt.Fprintf(&b, "-----END %s-----", keyType)
	b.WriteRune('\n')
	return b.Bytes()
}

var serverSigner ssh.Signer

func init() {
	var err error
	serverSigner, err = ssh.ParsePrivateKey(sshServerKeyPEM())
	if err != nil {
		panic(err)
	}
}

func (f *sshFixture) start(t testing.TB) error {
	fds, err := syscall.Socketpair(syscall.AF_LOCAL, syscall.SOCK_STREAM, 0)
	if err != nil {
		return err
	}

	serverFile := os.NewFile(uintptr(fds[0]), "socketpair[0]")
	defer serverFile.Close() // Does not affect serverConn.
	serverConn, err := net.FileConn(serverFile)
	if err != nil {
		return err
	}

	clientFile := os.NewFile(uintptr(fds[1]), "socketpair[1]")
	defer clientFile.Close() // Does not affect clientConn.
	clientConn, err := net.FileConn(clientFile)
	if err != nil {
		return err
	}

	serverConfig := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if conn.User() == "frr" && string(password) == "zebra" {
				return nil, nil
			}
			return nil, errors.New("login error")
		},
	}
	serverConfig.AddHostKey(serverSigner)

	clientConfig := &ssh.ClientConfig{
		User:            "frr",
		Auth:            []ssh.AuthMethod{ssh.Password("zebra")},
		HostKeyCallback: ssh.FixedHostKey(serverSigner.PublicKey()),
	}

	// Server and client handshakes must be done simultaneously.
	errch := make(chan error)
	defer close(errch)

	go func() {
		_, serverChans, serverReq, err := ssh.NewServerConn(serverConn, serverConfig)
		if err != nil {
			errch <- fmt.Errorf("server error: %w", err)
			return
		}
		go f.handleServerNewChannel(serverChans)
		go ssh.DiscardRequests(serverReq)
		errch <- nil
	}()

	var client *ssh.Client

	go func() {
		clientTransport, clientChans, clientReq, err := ssh.NewClientConn(clientConn, "socketpair", clientConfig)
		if err != nil {
			errch <- fmt.Errorf("client error: %w", err)
			return
		}
		client = ssh.NewClient(clientTransport, clientChans, clientReq)
		errch <- nil
	}()

	if err1, err2 := <-errch, <-errch; err1 != nil || err2 != nil {
		return fmt.Errorf("handshake errors: %v; and %v", err1, err2)
	}
	f.node = NewSSHNode("r1", client)
	t.Cleanup(func() { f.node.Close() })
	return nil
}

func (f *sshFixture) handleServerNewChannel(ch <-chan ssh.NewChannel) {
	for newChannel := range ch {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			log.Printf("Could not accept channel: %v", err)
			continue
		}
		go f.handleServerChannel(channel, requests)
	}
}

func (f *sshFixture) handleServerChannel(c ssh.Channel, reqs <-chan *ssh.Request) {
	for req := range reqs {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		f.handleExec(c, req)
	}
}

// handleExec writes the canned output of the command and its exit status.
// Unknown commands print an error to stderr and exit 127.
func (f *sshFixture) handleExec(c ssh.Channel, req *ssh.Request) {
	var execMsg struct{ Command string }
	if err := ssh.Unmarshal(req.Payload, &execMsg); err != nil {
		req.Reply(false, nil)
		return
	}
	req.Reply(true, nil)
	status := uint32(127)
	if out, ok := f.outputs[execMsg.Command]; ok {
		c.Write([]byte(out))
		status = f.status[execMsg.Command]
	} else {
		c.Stderr().Write([]byte("sh: command not found\n"))
	}
	c.CloseWrite()

	statusMsg := make([]byte, 4)
	binary.BigEndian.PutUint32(statusMsg, status)
	c.SendRequest("exit-status", false, statusMsg)
	c.Close()
}

func TestSSHNode(t *testing.T) {
	f := &sshFixture{
		outputs: map[string]string{
			"vtysh -c 'show ip pim upstream json'": `{"229.1.1.1":{}}` + "\n",
			"cat /proc/net/ip_mr_vif":              "cat: /proc/net/ip_mr_vif: No such file or directory\n",
		},
		status: map[string]uint32{"cat /proc/net/ip_mr_vif": 1},
	}
	if err := f.start(t); err != nil {
		t.Fatalf("Could not start sshFixture: %v", err)
	}
	if got := f.node.Name(); got != "r1" {
		t.Errorf("Name() got %q, want %q", got, "r1")
	}

	tests := []struct {
		cmd  string
		want string
	}{
		{cmd: "vtysh -c 'show ip pim upstream json'", want: `{"229.1.1.1":{}}` + "\n"},
		{cmd: "cat /proc/net/ip_mr_vif", want: "cat: /proc/net/ip_mr_vif: No such file or directory\n"},
		{cmd: "xyzzy", want: "sh: command not found\n"},
	}
	for _, tt := range tests {
		got, err := f.node.RunCommand(context.Background(), tt.cmd)
		if err != nil {
			t.Errorf("RunCommand(%q) got error: %v", tt.cmd, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RunCommand(%q) got %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestSSHNodeClosed(t *testing.T) {
	f := &sshFixture{}
	if err := f.start(t); err != nil {
		t.Fatalf("Could not start sshFixture: %v", err)
	}
	f.node.Close()
	_, err := f.node.RunCommand(context.Background(), "show version")
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("RunCommand() on closed node got error %v, want *CommandError", err)
	}
	if ce.Node != "r1" || ce.Command != "show version" {
		t.Errorf("RunCommand() got %+v, want node r1 and command %q", ce, "show version")
	}
}

func TestSSHNodeResult(t *testing.T) {
	n := NewSSHNode("r1", nil)
	tests := []struct {
		desc    string
		err     error
		want    string
		wantErr bool
	}{{
		desc: "success",
		want: "output\n",
	}, {
		desc: "non-zero exit",
		err:  &ssh.ExitError{},
		want: "output\n",
	}, {
		desc: "wrapped non-zero exit",
		err:  fmt.Errorf("session: %w", &ssh.ExitError{}),
		want: "output\n",
	}, {
		desc:    "missing exit status",
		err:     &ssh.ExitMissingError{},
		wantErr: true,
	}, {
		desc:    "transport failure",
		err:     errors.New("connection reset by peer"),
		wantErr: true,
	}}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := n.result("show version", []byte("output\n"), tt.err)
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Fatalf("result() got error %v, want error %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var ce *CommandError
				if !errors.As(err, &ce) || !errors.Is(err, tt.err) {
					t.Errorf("result() got error %v, want *CommandError wrapping %v", err, tt.err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("result() got %q, want %q", got, tt.want)
			}
		})
	}
}
